package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type expenseRepository struct {
	pool *pgxpool.Pool
}

func NewExpenseRepository(pool *pgxpool.Pool) repository.ExpenseRepository {
	return &expenseRepository{pool: pool}
}

var _ repository.ExpenseRepository = (*expenseRepository)(nil)

const expenseColumns = `
	id,
	spent_on,
	category,
	amount,
	description
`

func scanExpense(src scanTarget) (*model.Expense, error) {
	var e model.Expense
	err := src.Scan(
		&e.ID,
		&e.SpentOn,
		&e.Category,
		&e.Amount,
		&e.Description,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return r.pool.QueryRow(
		ctx,
		`INSERT INTO expenses (spent_on, category, amount, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		dayOf(expense.SpentOn),
		expense.Category,
		expense.Amount,
		expense.Description,
	).Scan(&expense.ID)
}

func expenseFilterConditions(filter repository.ExpenseFilter) (string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.From != nil {
		args = append(args, dayOf(*filter.From))
		conditions = append(conditions, fmt.Sprintf("spent_on >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, dayOf(*filter.To))
		conditions = append(conditions, fmt.Sprintf("spent_on <= $%d", len(args)))
	}
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		args = append(args, strings.TrimSpace(*filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *expenseRepository) List(ctx context.Context, filter repository.ExpenseFilter) ([]*model.Expense, error) {
	where, args := expenseFilterConditions(filter)

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+expenseColumns+` FROM expenses`+where+` ORDER BY spent_on DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]*model.Expense, 0, 32)
	for rows.Next() {
		expense, scanErr := scanExpense(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (r *expenseRepository) TotalsByCategory(ctx context.Context, filter repository.ExpenseFilter) ([]model.CategoryTotal, error) {
	where, args := expenseFilterConditions(filter)

	rows, err := r.pool.Query(
		ctx,
		`SELECT category, COALESCE(SUM(amount), 0) AS total
		   FROM expenses`+where+`
		  GROUP BY category
		  ORDER BY total DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]model.CategoryTotal, 0, 8)
	for rows.Next() {
		var ct model.CategoryTotal
		if scanErr := rows.Scan(&ct.Category, &ct.Total); scanErr != nil {
			return nil, scanErr
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (r *expenseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}
