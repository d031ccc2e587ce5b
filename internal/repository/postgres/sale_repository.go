package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type saleRepository struct {
	pool *pgxpool.Pool
}

func NewSaleRepository(pool *pgxpool.Pool) repository.SaleRepository {
	return &saleRepository{pool: pool}
}

var _ repository.SaleRepository = (*saleRepository)(nil)

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return r.pool.QueryRow(
		ctx,
		`INSERT INTO sales (sold_on, dish_id, quantity, unit_price, total_amount)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		dayOf(sale.SoldOn),
		sale.DishID,
		sale.Quantity,
		sale.UnitPrice,
		sale.Total,
	).Scan(&sale.ID)
}

func saleFilterConditions(filter repository.SaleFilter) (string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.From != nil {
		args = append(args, dayOf(*filter.From))
		conditions = append(conditions, fmt.Sprintf("s.sold_on >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, dayOf(*filter.To))
		conditions = append(conditions, fmt.Sprintf("s.sold_on <= $%d", len(args)))
	}
	if filter.DishID != nil {
		args = append(args, *filter.DishID)
		conditions = append(conditions, fmt.Sprintf("s.dish_id = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *saleRepository) List(ctx context.Context, filter repository.SaleFilter) ([]*model.Sale, error) {
	where, args := saleFilterConditions(filter)

	rows, err := r.pool.Query(
		ctx,
		`SELECT s.id, s.sold_on, s.dish_id, COALESCE(d.name, ''), s.quantity, s.unit_price, s.total_amount
		   FROM sales s
		   LEFT JOIN dishes d ON d.id = s.dish_id`+where+`
		  ORDER BY s.sold_on DESC, s.id DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]*model.Sale, 0, 32)
	for rows.Next() {
		var s model.Sale
		if scanErr := rows.Scan(
			&s.ID,
			&s.SoldOn,
			&s.DishID,
			&s.DishName,
			&s.Quantity,
			&s.UnitPrice,
			&s.Total,
		); scanErr != nil {
			return nil, scanErr
		}
		sales = append(sales, &s)
	}
	return sales, rows.Err()
}

func (r *saleRepository) Revenue(ctx context.Context, filter repository.SaleFilter) (decimal.Decimal, error) {
	where, args := saleFilterConditions(filter)

	var revenue decimal.Decimal
	err := r.pool.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(s.total_amount), 0) FROM sales s`+where,
		args...,
	).Scan(&revenue)
	if err != nil {
		return decimal.Zero, err
	}
	return revenue, nil
}

func (r *saleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}
