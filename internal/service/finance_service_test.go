package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type fakeExpenseRepo struct {
	expenses []*model.Expense
}

func (f *fakeExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	f.expenses = append(f.expenses, expense)
	return nil
}

func (f *fakeExpenseRepo) List(_ context.Context, _ repository.ExpenseFilter) ([]*model.Expense, error) {
	return f.expenses, nil
}

func (f *fakeExpenseRepo) TotalsByCategory(_ context.Context, _ repository.ExpenseFilter) ([]model.CategoryTotal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, expense := range f.expenses {
		totals[expense.Category] = totals[expense.Category].Add(expense.Amount)
	}
	result := make([]model.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		result = append(result, model.CategoryTotal{Category: category, Total: total})
	}
	return result, nil
}

func (f *fakeExpenseRepo) Delete(_ context.Context, _ int64) error {
	return repository.ErrNotFound
}

type fakeSaleRepo struct {
	sales []*model.Sale
}

func (f *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	f.sales = append(f.sales, sale)
	return nil
}

func (f *fakeSaleRepo) List(_ context.Context, _ repository.SaleFilter) ([]*model.Sale, error) {
	return f.sales, nil
}

func (f *fakeSaleRepo) Revenue(_ context.Context, _ repository.SaleFilter) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, sale := range f.sales {
		total = total.Add(sale.Total)
	}
	return total, nil
}

func (f *fakeSaleRepo) Delete(_ context.Context, _ int64) error {
	return repository.ErrNotFound
}

type fakeDishRepo struct {
	dishes  map[int64]*model.Dish
	recipes map[int64][]*model.RecipeItem
}

func (f *fakeDishRepo) Create(_ context.Context, dish *model.Dish) error {
	f.dishes[dish.ID] = dish
	return nil
}

func (f *fakeDishRepo) FindByID(_ context.Context, id int64) (*model.Dish, error) {
	dish, ok := f.dishes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return dish, nil
}

func (f *fakeDishRepo) List(_ context.Context) ([]*model.Dish, error) {
	result := make([]*model.Dish, 0, len(f.dishes))
	for _, dish := range f.dishes {
		result = append(result, dish)
	}
	return result, nil
}

func (f *fakeDishRepo) Update(_ context.Context, _ *model.Dish) error {
	return nil
}

func (f *fakeDishRepo) Delete(_ context.Context, _ int64) error {
	return repository.ErrNotFound
}

func (f *fakeDishRepo) UpsertRecipeItem(_ context.Context, _ *model.RecipeItem) error {
	return nil
}

func (f *fakeDishRepo) DeleteRecipeItem(_ context.Context, _, _ int64) error {
	return repository.ErrNotFound
}

func (f *fakeDishRepo) ListRecipe(_ context.Context, dishID int64) ([]*model.RecipeItem, error) {
	return f.recipes[dishID], nil
}

func TestReport_ProfitComputation(t *testing.T) {
	t.Parallel()

	dishRepo := &fakeDishRepo{
		dishes: map[int64]*model.Dish{
			1: {ID: 1, Name: "Сырники", Price: decimal.NewFromInt(25), Category: "Завтраки"},
		},
		recipes: map[int64][]*model.RecipeItem{
			1: {
				{DishID: 1, IngredientID: 1, Quantity: decimal.NewFromInt(1), PricePerUnit: decimal.NewFromInt(10)},
			},
		},
	}
	menuSvc := NewMenuService(nil, dishRepo, zap.NewNop())

	saleRepo := &fakeSaleRepo{
		sales: []*model.Sale{
			{ID: 1, DishID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(25), Total: decimal.NewFromInt(50)},
			{ID: 2, DishID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(25), Total: decimal.NewFromInt(25)},
		},
	}
	expenseRepo := &fakeExpenseRepo{
		expenses: []*model.Expense{
			{ID: 1, Category: "Аренда", Amount: decimal.NewFromInt(20)},
			{ID: 2, Category: "Закупка", Amount: decimal.NewFromInt(5)},
		},
	}

	svc := NewFinanceService(expenseRepo, saleRepo, menuSvc, zap.NewNop())

	report, err := svc.Report(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if !report.Revenue.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected revenue 75, got %s", report.Revenue)
	}
	if !report.CostOfGoods.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected cost of goods 30, got %s", report.CostOfGoods)
	}
	if !report.GrossProfit.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("expected gross profit 45, got %s", report.GrossProfit)
	}
	if !report.ExpenseTotal.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected expense total 25, got %s", report.ExpenseTotal)
	}
	if !report.NetProfit.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected net profit 20, got %s", report.NetProfit)
	}
	if len(report.ExpensesByCategory) != 2 {
		t.Fatalf("expected 2 expense categories, got %d", len(report.ExpensesByCategory))
	}
	if len(report.Sales) != 2 || len(report.Expenses) != 2 {
		t.Fatalf("expected detail rows in report, got %d sales, %d expenses", len(report.Sales), len(report.Expenses))
	}
}

func TestReport_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewFinanceService(&fakeExpenseRepo{}, &fakeSaleRepo{}, nil, zap.NewNop())

	from := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Report(context.Background(), from, to); err != ErrInvalidFinanceInput {
		t.Fatalf("expected ErrInvalidFinanceInput, got %v", err)
	}
}

func TestAddSale_SnapshotsDishPrice(t *testing.T) {
	t.Parallel()

	dishRepo := &fakeDishRepo{
		dishes: map[int64]*model.Dish{
			5: {ID: 5, Name: "Капучино", Price: decimal.NewFromFloat(9.5), Category: "Кофе"},
		},
		recipes: map[int64][]*model.RecipeItem{},
	}
	menuSvc := NewMenuService(nil, dishRepo, zap.NewNop())
	saleRepo := &fakeSaleRepo{}
	svc := NewFinanceService(&fakeExpenseRepo{}, saleRepo, menuSvc, zap.NewNop())

	sale, err := svc.AddSale(context.Background(), SaleRequest{DishID: 5, Quantity: 3})
	if err != nil {
		t.Fatalf("AddSale returned error: %v", err)
	}

	if !sale.UnitPrice.Equal(decimal.NewFromFloat(9.5)) {
		t.Fatalf("expected unit price 9.5, got %s", sale.UnitPrice)
	}
	if !sale.Total.Equal(decimal.NewFromFloat(28.5)) {
		t.Fatalf("expected total 28.5, got %s", sale.Total)
	}
	if sale.DishName != "Капучино" {
		t.Fatalf("expected dish name snapshot, got %q", sale.DishName)
	}
	if len(saleRepo.sales) != 1 {
		t.Fatalf("expected 1 stored sale, got %d", len(saleRepo.sales))
	}
}

func TestAddSale_RejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	svc := NewFinanceService(&fakeExpenseRepo{}, &fakeSaleRepo{}, nil, zap.NewNop())
	if _, err := svc.AddSale(context.Background(), SaleRequest{DishID: 1, Quantity: 0}); err != ErrInvalidFinanceInput {
		t.Fatalf("expected ErrInvalidFinanceInput, got %v", err)
	}
}
