package model

import "github.com/shopspring/decimal"

type Ingredient struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Unit         string          `db:"unit" json:"unit"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	Supplier     *string         `db:"supplier" json:"supplier,omitempty"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
}

type Dish struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Category    string          `db:"category" json:"category"`
	Description *string         `db:"description" json:"description,omitempty"`
}

type RecipeItem struct {
	ID           int64           `db:"id" json:"id"`
	DishID       int64           `db:"dish_id" json:"dish_id"`
	IngredientID int64           `db:"ingredient_id" json:"ingredient_id"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`

	IngredientName string          `db:"ingredient_name" json:"ingredient_name,omitempty"`
	IngredientUnit string          `db:"ingredient_unit" json:"ingredient_unit,omitempty"`
	PricePerUnit   decimal.Decimal `db:"price_per_unit" json:"price_per_unit,omitempty"`
}

func (r RecipeItem) Cost() decimal.Decimal {
	return r.PricePerUnit.Mul(r.Quantity)
}

type MenuEntry struct {
	Dish       Dish            `json:"dish"`
	Cost       decimal.Decimal `json:"cost"`
	Margin     decimal.Decimal `json:"margin"`
	MarginPct  decimal.Decimal `json:"margin_pct"`
	MarkupPct  decimal.Decimal `json:"markup_pct"`
	Components []RecipeItem    `json:"components,omitempty"`
}
