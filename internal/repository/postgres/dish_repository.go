package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type dishRepository struct {
	pool *pgxpool.Pool
}

func NewDishRepository(pool *pgxpool.Pool) repository.DishRepository {
	return &dishRepository{pool: pool}
}

var _ repository.DishRepository = (*dishRepository)(nil)

const dishColumns = `
	id,
	name,
	price,
	category,
	description
`

func scanDish(src scanTarget) (*model.Dish, error) {
	var d model.Dish
	err := src.Scan(
		&d.ID,
		&d.Name,
		&d.Price,
		&d.Category,
		&d.Description,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dishRepository) Create(ctx context.Context, dish *model.Dish) error {
	return r.pool.QueryRow(
		ctx,
		`INSERT INTO dishes (name, price, category, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		dish.Name,
		dish.Price,
		dish.Category,
		dish.Description,
	).Scan(&dish.ID)
}

func (r *dishRepository) FindByID(ctx context.Context, id int64) (*model.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes WHERE id = $1`
	dish, err := scanDish(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dish, nil
}

func (r *dishRepository) List(ctx context.Context) ([]*model.Dish, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+dishColumns+` FROM dishes ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dishes := make([]*model.Dish, 0, 32)
	for rows.Next() {
		dish, scanErr := scanDish(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		dishes = append(dishes, dish)
	}
	return dishes, rows.Err()
}

func (r *dishRepository) Update(ctx context.Context, dish *model.Dish) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE dishes
		    SET name = $2, price = $3, category = $4, description = $5
		  WHERE id = $1`,
		dish.ID,
		dish.Name,
		dish.Price,
		dish.Category,
		dish.Description,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *dishRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dishes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *dishRepository) UpsertRecipeItem(ctx context.Context, item *model.RecipeItem) error {
	return r.pool.QueryRow(
		ctx,
		`INSERT INTO recipe_items (dish_id, ingredient_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (dish_id, ingredient_id) DO UPDATE SET quantity = EXCLUDED.quantity
		 RETURNING id`,
		item.DishID,
		item.IngredientID,
		item.Quantity,
	).Scan(&item.ID)
}

func (r *dishRepository) DeleteRecipeItem(ctx context.Context, dishID, ingredientID int64) error {
	tag, err := r.pool.Exec(
		ctx,
		`DELETE FROM recipe_items WHERE dish_id = $1 AND ingredient_id = $2`,
		dishID,
		ingredientID,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *dishRepository) ListRecipe(ctx context.Context, dishID int64) ([]*model.RecipeItem, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT ri.id, ri.dish_id, ri.ingredient_id, ri.quantity,
		        i.name, i.unit, i.price_per_unit
		   FROM recipe_items ri
		   JOIN ingredients i ON i.id = ri.ingredient_id
		  WHERE ri.dish_id = $1
		  ORDER BY i.name`,
		dishID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.RecipeItem, 0, 8)
	for rows.Next() {
		var item model.RecipeItem
		if scanErr := rows.Scan(
			&item.ID,
			&item.DishID,
			&item.IngredientID,
			&item.Quantity,
			&item.IngredientName,
			&item.IngredientUnit,
			&item.PricePerUnit,
		); scanErr != nil {
			return nil, scanErr
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
