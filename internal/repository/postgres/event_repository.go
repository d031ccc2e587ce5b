package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type clientEventRepository struct {
	pool *pgxpool.Pool
}

func NewClientEventRepository(pool *pgxpool.Pool) repository.ClientEventRepository {
	return &clientEventRepository{pool: pool}
}

var _ repository.ClientEventRepository = (*clientEventRepository)(nil)

const clientEventColumns = `
	id,
	client_id,
	event_type,
	details,
	created_at
`

func scanClientEvent(src scanTarget) (*model.ClientEvent, error) {
	var e model.ClientEvent
	err := src.Scan(
		&e.ID,
		&e.ClientID,
		&e.EventType,
		&e.Details,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *clientEventRepository) Create(ctx context.Context, event *model.ClientEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO client_events (id, client_id, event_type, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID,
		event.ClientID,
		event.EventType,
		event.Details,
		event.CreatedAt,
	)
	return err
}

func eventFilterConditions(filter repository.EventListFilter) (string, []any) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.EventType != nil && strings.TrimSpace(*filter.EventType) != "" {
		args = append(args, strings.TrimSpace(*filter.EventType))
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *clientEventRepository) List(ctx context.Context, filter repository.EventListFilter) ([]*model.ClientEvent, error) {
	where, args := eventFilterConditions(filter)
	limit, offset := normalizePagination(filter.Pagination)

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT `+clientEventColumns+` FROM client_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.ClientEvent, 0, limit)
	for rows.Next() {
		event, scanErr := scanClientEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *clientEventRepository) Count(ctx context.Context, filter repository.EventListFilter) (int64, error) {
	where, args := eventFilterConditions(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM client_events`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
