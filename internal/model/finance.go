package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          int64           `db:"id" json:"id"`
	SpentOn     time.Time       `db:"spent_on" json:"spent_on"`
	Category    string          `db:"category" json:"category"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description *string         `db:"description" json:"description,omitempty"`
}

type Sale struct {
	ID        int64           `db:"id" json:"id"`
	SoldOn    time.Time       `db:"sold_on" json:"sold_on"`
	DishID    int64           `db:"dish_id" json:"dish_id"`
	DishName  string          `db:"dish_name" json:"dish_name,omitempty"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total     decimal.Decimal `db:"total_amount" json:"total_amount"`
}

type CategoryTotal struct {
	Category string          `db:"category" json:"category"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

type FinancialReport struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	Revenue            decimal.Decimal `json:"revenue"`
	ExpenseTotal       decimal.Decimal `json:"expense_total"`
	CostOfGoods        decimal.Decimal `json:"cost_of_goods"`
	GrossProfit        decimal.Decimal `json:"gross_profit"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	ExpensesByCategory []CategoryTotal `json:"expenses_by_category"`
	Sales              []Sale          `json:"sales,omitempty"`
	Expenses           []Expense       `json:"expenses,omitempty"`
}
