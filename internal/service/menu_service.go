package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrDishNotFound       = errors.New("dish not found")
	ErrInvalidMenuInput   = errors.New("invalid menu input")
	ErrNameTaken          = errors.New("name already taken")
	ErrDishInUse          = errors.New("dish has recorded sales")
)

var decimalHundred = decimal.NewFromInt(100)

type IngredientRequest struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Supplier     *string         `json:"supplier,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
}

type DishRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
}

type MenuService struct {
	ingredientRepo repository.IngredientRepository
	dishRepo       repository.DishRepository
	logger         *zap.Logger
}

func NewMenuService(
	ingredientRepo repository.IngredientRepository,
	dishRepo repository.DishRepository,
	logger *zap.Logger,
) *MenuService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MenuService{
		ingredientRepo: ingredientRepo,
		dishRepo:       dishRepo,
		logger:         logger,
	}
}

func (s *MenuService) CreateIngredient(ctx context.Context, req IngredientRequest) (*model.Ingredient, error) {
	name := strings.TrimSpace(req.Name)
	unit := strings.TrimSpace(req.Unit)
	if name == "" || unit == "" || req.PricePerUnit.IsNegative() {
		return nil, ErrInvalidMenuInput
	}

	ingredient := &model.Ingredient{
		Name:         name,
		Unit:         unit,
		PricePerUnit: req.PricePerUnit,
		Supplier:     trimPtr(req.Supplier),
		Notes:        trimPtr(req.Notes),
	}

	if err := s.ingredientRepo.Create(ctx, ingredient); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return ingredient, nil
}

func (s *MenuService) GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error) {
	ingredient, err := s.ingredientRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return ingredient, nil
}

func (s *MenuService) ListIngredients(ctx context.Context) ([]*model.Ingredient, error) {
	return s.ingredientRepo.List(ctx)
}

func (s *MenuService) UpdateIngredient(ctx context.Context, id int64, req IngredientRequest) (*model.Ingredient, error) {
	ingredient, err := s.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	unit := strings.TrimSpace(req.Unit)
	if name == "" || unit == "" || req.PricePerUnit.IsNegative() {
		return nil, ErrInvalidMenuInput
	}

	ingredient.Name = name
	ingredient.Unit = unit
	ingredient.PricePerUnit = req.PricePerUnit
	ingredient.Supplier = trimPtr(req.Supplier)
	ingredient.Notes = trimPtr(req.Notes)

	if err := s.ingredientRepo.Update(ctx, ingredient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, mapUniqueViolation(err)
	}
	return ingredient, nil
}

func (s *MenuService) DeleteIngredient(ctx context.Context, id int64) error {
	if err := s.ingredientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIngredientNotFound
		}
		return err
	}
	return nil
}

func (s *MenuService) CreateDish(ctx context.Context, req DishRequest) (*model.Dish, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" || req.Price.IsNegative() {
		return nil, ErrInvalidMenuInput
	}

	dish := &model.Dish{
		Name:        name,
		Price:       req.Price,
		Category:    category,
		Description: trimPtr(req.Description),
	}

	if err := s.dishRepo.Create(ctx, dish); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return dish, nil
}

func (s *MenuService) GetDish(ctx context.Context, id int64) (*model.Dish, error) {
	dish, err := s.dishRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDishNotFound
		}
		return nil, err
	}
	return dish, nil
}

func (s *MenuService) ListDishes(ctx context.Context) ([]*model.Dish, error) {
	return s.dishRepo.List(ctx)
}

func (s *MenuService) UpdateDish(ctx context.Context, id int64, req DishRequest) (*model.Dish, error) {
	dish, err := s.GetDish(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" || req.Price.IsNegative() {
		return nil, ErrInvalidMenuInput
	}

	dish.Name = name
	dish.Price = req.Price
	dish.Category = category
	dish.Description = trimPtr(req.Description)

	if err := s.dishRepo.Update(ctx, dish); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDishNotFound
		}
		return nil, mapUniqueViolation(err)
	}
	return dish, nil
}

func (s *MenuService) DeleteDish(ctx context.Context, id int64) error {
	if err := s.dishRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDishNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrDishInUse
		}
		return err
	}
	return nil
}

func (s *MenuService) SetRecipeItem(ctx context.Context, dishID, ingredientID int64, quantity decimal.Decimal) (*model.RecipeItem, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidMenuInput
	}

	if _, err := s.GetDish(ctx, dishID); err != nil {
		return nil, err
	}
	if _, err := s.GetIngredient(ctx, ingredientID); err != nil {
		return nil, err
	}

	item := &model.RecipeItem{
		DishID:       dishID,
		IngredientID: ingredientID,
		Quantity:     quantity,
	}
	if err := s.dishRepo.UpsertRecipeItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) RemoveRecipeItem(ctx context.Context, dishID, ingredientID int64) error {
	if err := s.dishRepo.DeleteRecipeItem(ctx, dishID, ingredientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDishNotFound
		}
		return err
	}
	return nil
}

func (s *MenuService) Recipe(ctx context.Context, dishID int64) ([]*model.RecipeItem, error) {
	if _, err := s.GetDish(ctx, dishID); err != nil {
		return nil, err
	}
	return s.dishRepo.ListRecipe(ctx, dishID)
}

func (s *MenuService) DishCost(ctx context.Context, dishID int64) (decimal.Decimal, error) {
	items, err := s.dishRepo.ListRecipe(ctx, dishID)
	if err != nil {
		return decimal.Zero, err
	}

	cost := decimal.Zero
	for _, item := range items {
		cost = cost.Add(item.Cost())
	}
	return cost.Round(2), nil
}

func (s *MenuService) MenuEntry(ctx context.Context, dishID int64) (*model.MenuEntry, error) {
	dish, err := s.GetDish(ctx, dishID)
	if err != nil {
		return nil, err
	}

	items, err := s.dishRepo.ListRecipe(ctx, dishID)
	if err != nil {
		return nil, err
	}

	entry := buildMenuEntry(dish, items)
	return &entry, nil
}

func (s *MenuService) Menu(ctx context.Context) ([]model.MenuEntry, error) {
	dishes, err := s.dishRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.MenuEntry, 0, len(dishes))
	for _, dish := range dishes {
		items, err := s.dishRepo.ListRecipe(ctx, dish.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, buildMenuEntry(dish, items))
	}
	return entries, nil
}

func buildMenuEntry(dish *model.Dish, items []*model.RecipeItem) model.MenuEntry {
	cost := decimal.Zero
	components := make([]model.RecipeItem, 0, len(items))
	for _, item := range items {
		cost = cost.Add(item.Cost())
		components = append(components, *item)
	}
	cost = cost.Round(2)

	margin := dish.Price.Sub(cost).Round(2)
	marginPct := decimal.Zero
	if dish.Price.IsPositive() {
		marginPct = margin.Div(dish.Price).Mul(decimalHundred).Round(2)
	}
	markupPct := decimal.Zero
	if cost.IsPositive() {
		markupPct = margin.Div(cost).Mul(decimalHundred).Round(2)
	}

	return model.MenuEntry{
		Dish:       *dish,
		Cost:       cost,
		Margin:     margin,
		MarginPct:  marginPct,
		MarkupPct:  markupPct,
		Components: components,
	}
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrNameTaken
	}
	return err
}
