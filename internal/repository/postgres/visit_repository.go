package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type visitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) repository.VisitRepository {
	return &visitRepository{pool: pool}
}

var _ repository.VisitRepository = (*visitRepository)(nil)

const visitColumns = `
	id,
	client_id,
	category,
	ordinal,
	is_free,
	visited_on
`

func scanVisit(src scanTarget) (*model.Visit, error) {
	var v model.Visit
	err := src.Scan(
		&v.ID,
		&v.ClientID,
		&v.Category,
		&v.Ordinal,
		&v.Free,
		&v.VisitedOn,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitRepository) CountByClient(ctx context.Context, clientID int64, category model.VisitCategory) (int64, error) {
	var total int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM loyalty_visits WHERE client_id = $1 AND category = $2`,
		clientID,
		category,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *visitRepository) ListByClient(ctx context.Context, clientID int64, category model.VisitCategory) ([]*model.Visit, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+visitColumns+`
		   FROM loyalty_visits
		  WHERE client_id = $1 AND category = $2
		  ORDER BY ordinal DESC`,
		clientID,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := make([]*model.Visit, 0, 16)
	for rows.Next() {
		visit, scanErr := scanVisit(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

func (r *visitRepository) CountOn(ctx context.Context, day time.Time, category model.VisitCategory) (int64, error) {
	var total int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM loyalty_visits WHERE visited_on = $1 AND category = $2`,
		dayOf(day),
		category,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *visitRepository) CountFreeOn(ctx context.Context, day time.Time, category model.VisitCategory) (int64, error) {
	var total int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM loyalty_visits WHERE visited_on = $1 AND category = $2 AND is_free`,
		dayOf(day),
		category,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
