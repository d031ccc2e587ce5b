package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shatlykos/cafe-management-system/internal/model"
)

var ErrNotFound = errors.New("record not found")

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type ClientListFilter struct {
	Keyword    *string    `json:"keyword,omitempty"`
	Linked     *bool      `json:"linked,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type EventListFilter struct {
	ClientID   *int64     `json:"client_id,omitempty"`
	EventType  *string    `json:"event_type,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type ExpenseFilter struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Category *string    `json:"category,omitempty"`
}

type SaleFilter struct {
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	DishID *int64     `json:"dish_id,omitempty"`
}

type ClientRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Client, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Client, error)
	FindByHistoryToken(ctx context.Context, token string) (*model.Client, error)
	FindByTelegramChatID(ctx context.Context, chatID int64) (*model.Client, error)
	List(ctx context.Context, filter ClientListFilter) ([]*model.Client, error)
	Count(ctx context.Context, filter ClientListFilter) (int64, error)
	ListAll(ctx context.Context) ([]*model.Client, error)
	Update(ctx context.Context, client *model.Client) error
	UpdateBarcode(ctx context.Context, id int64, barcode string) error
	LinkTelegram(ctx context.Context, id int64, chatID int64) error
	Delete(ctx context.Context, id int64) error
}

type VisitRepository interface {
	CountByClient(ctx context.Context, clientID int64, category model.VisitCategory) (int64, error)
	ListByClient(ctx context.Context, clientID int64, category model.VisitCategory) ([]*model.Visit, error)
	CountOn(ctx context.Context, day time.Time, category model.VisitCategory) (int64, error)
	CountFreeOn(ctx context.Context, day time.Time, category model.VisitCategory) (int64, error)
}

type ClientEventRepository interface {
	Create(ctx context.Context, event *model.ClientEvent) error
	List(ctx context.Context, filter EventListFilter) ([]*model.ClientEvent, error)
	Count(ctx context.Context, filter EventListFilter) (int64, error)
}

type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	FindByUsername(ctx context.Context, username string) (*model.Staff, error)
}

type IngredientRepository interface {
	Create(ctx context.Context, ingredient *model.Ingredient) error
	FindByID(ctx context.Context, id int64) (*model.Ingredient, error)
	List(ctx context.Context) ([]*model.Ingredient, error)
	Update(ctx context.Context, ingredient *model.Ingredient) error
	Delete(ctx context.Context, id int64) error
}

type DishRepository interface {
	Create(ctx context.Context, dish *model.Dish) error
	FindByID(ctx context.Context, id int64) (*model.Dish, error)
	List(ctx context.Context) ([]*model.Dish, error)
	Update(ctx context.Context, dish *model.Dish) error
	Delete(ctx context.Context, id int64) error

	UpsertRecipeItem(ctx context.Context, item *model.RecipeItem) error
	DeleteRecipeItem(ctx context.Context, dishID, ingredientID int64) error
	ListRecipe(ctx context.Context, dishID int64) ([]*model.RecipeItem, error)
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	List(ctx context.Context, filter ExpenseFilter) ([]*model.Expense, error)
	TotalsByCategory(ctx context.Context, filter ExpenseFilter) ([]model.CategoryTotal, error)
	Delete(ctx context.Context, id int64) error
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	List(ctx context.Context, filter SaleFilter) ([]*model.Sale, error)
	Revenue(ctx context.Context, filter SaleFilter) (decimal.Decimal, error)
	Delete(ctx context.Context, id int64) error
}
