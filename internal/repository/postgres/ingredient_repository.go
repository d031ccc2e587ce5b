package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type ingredientRepository struct {
	pool *pgxpool.Pool
}

func NewIngredientRepository(pool *pgxpool.Pool) repository.IngredientRepository {
	return &ingredientRepository{pool: pool}
}

var _ repository.IngredientRepository = (*ingredientRepository)(nil)

const ingredientColumns = `
	id,
	name,
	unit,
	price_per_unit,
	supplier,
	notes
`

func scanIngredient(src scanTarget) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := src.Scan(
		&ing.ID,
		&ing.Name,
		&ing.Unit,
		&ing.PricePerUnit,
		&ing.Supplier,
		&ing.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (r *ingredientRepository) Create(ctx context.Context, ingredient *model.Ingredient) error {
	return r.pool.QueryRow(
		ctx,
		`INSERT INTO ingredients (name, unit, price_per_unit, supplier, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		ingredient.Name,
		ingredient.Unit,
		ingredient.PricePerUnit,
		ingredient.Supplier,
		ingredient.Notes,
	).Scan(&ingredient.ID)
}

func (r *ingredientRepository) FindByID(ctx context.Context, id int64) (*model.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`
	ingredient, err := scanIngredient(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ingredient, nil
}

func (r *ingredientRepository) List(ctx context.Context) ([]*model.Ingredient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ingredientColumns+` FROM ingredients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]*model.Ingredient, 0, 32)
	for rows.Next() {
		ingredient, scanErr := scanIngredient(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, rows.Err()
}

func (r *ingredientRepository) Update(ctx context.Context, ingredient *model.Ingredient) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE ingredients
		    SET name = $2, unit = $3, price_per_unit = $4, supplier = $5, notes = $6
		  WHERE id = $1`,
		ingredient.ID,
		ingredient.Name,
		ingredient.Unit,
		ingredient.PricePerUnit,
		ingredient.Supplier,
		ingredient.Notes,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *ingredientRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}
