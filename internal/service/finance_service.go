package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

var (
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrSaleNotFound        = errors.New("sale not found")
	ErrInvalidFinanceInput = errors.New("invalid finance input")
)

type ExpenseRequest struct {
	SpentOn     time.Time       `json:"spent_on"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
}

type SaleRequest struct {
	SoldOn   time.Time `json:"sold_on"`
	DishID   int64     `json:"dish_id"`
	Quantity int       `json:"quantity"`
}

type FinanceService struct {
	expenseRepo repository.ExpenseRepository
	saleRepo    repository.SaleRepository
	menuSvc     *MenuService
	logger      *zap.Logger
}

func NewFinanceService(
	expenseRepo repository.ExpenseRepository,
	saleRepo repository.SaleRepository,
	menuSvc *MenuService,
	logger *zap.Logger,
) *FinanceService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FinanceService{
		expenseRepo: expenseRepo,
		saleRepo:    saleRepo,
		menuSvc:     menuSvc,
		logger:      logger,
	}
}

func (s *FinanceService) AddExpense(ctx context.Context, req ExpenseRequest) (*model.Expense, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" || !req.Amount.IsPositive() {
		return nil, ErrInvalidFinanceInput
	}

	spentOn := req.SpentOn
	if spentOn.IsZero() {
		spentOn = time.Now().UTC()
	}

	expense := &model.Expense{
		SpentOn:     spentOn,
		Category:    category,
		Amount:      req.Amount,
		Description: trimPtr(req.Description),
	}
	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *FinanceService) ListExpenses(ctx context.Context, filter repository.ExpenseFilter) ([]*model.Expense, error) {
	return s.expenseRepo.List(ctx, filter)
}

func (s *FinanceService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return err
	}
	return nil
}

func (s *FinanceService) AddSale(ctx context.Context, req SaleRequest) (*model.Sale, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidFinanceInput
	}

	dish, err := s.menuSvc.GetDish(ctx, req.DishID)
	if err != nil {
		return nil, err
	}

	soldOn := req.SoldOn
	if soldOn.IsZero() {
		soldOn = time.Now().UTC()
	}

	quantity := decimal.NewFromInt(int64(req.Quantity))
	sale := &model.Sale{
		SoldOn:    soldOn,
		DishID:    dish.ID,
		DishName:  dish.Name,
		Quantity:  req.Quantity,
		UnitPrice: dish.Price,
		Total:     dish.Price.Mul(quantity).Round(2),
	}
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *FinanceService) ListSales(ctx context.Context, filter repository.SaleFilter) ([]*model.Sale, error) {
	return s.saleRepo.List(ctx, filter)
}

func (s *FinanceService) DeleteSale(ctx context.Context, id int64) error {
	if err := s.saleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSaleNotFound
		}
		return err
	}
	return nil
}

func (s *FinanceService) Report(ctx context.Context, from, to time.Time) (*model.FinancialReport, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, ErrInvalidFinanceInput
	}

	saleFilter := repository.SaleFilter{}
	expenseFilter := repository.ExpenseFilter{}
	if !from.IsZero() {
		saleFilter.From = &from
		expenseFilter.From = &from
	}
	if !to.IsZero() {
		saleFilter.To = &to
		expenseFilter.To = &to
	}

	sales, err := s.saleRepo.List(ctx, saleFilter)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.List(ctx, expenseFilter)
	if err != nil {
		return nil, err
	}

	byCategory, err := s.expenseRepo.TotalsByCategory(ctx, expenseFilter)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	costOfGoods := decimal.Zero
	dishCosts := make(map[int64]decimal.Decimal)
	for _, sale := range sales {
		revenue = revenue.Add(sale.Total)

		cost, ok := dishCosts[sale.DishID]
		if !ok {
			cost, err = s.menuSvc.DishCost(ctx, sale.DishID)
			if err != nil {
				return nil, err
			}
			dishCosts[sale.DishID] = cost
		}
		costOfGoods = costOfGoods.Add(cost.Mul(decimal.NewFromInt(int64(sale.Quantity))))
	}

	expenseTotal := decimal.Zero
	for _, expense := range expenses {
		expenseTotal = expenseTotal.Add(expense.Amount)
	}

	report := &model.FinancialReport{
		From:               from,
		To:                 to,
		Revenue:            revenue.Round(2),
		ExpenseTotal:       expenseTotal.Round(2),
		CostOfGoods:        costOfGoods.Round(2),
		GrossProfit:        revenue.Sub(costOfGoods).Round(2),
		NetProfit:          revenue.Sub(expenseTotal).Sub(costOfGoods).Round(2),
		ExpensesByCategory: byCategory,
	}
	report.Sales = make([]model.Sale, 0, len(sales))
	for _, sale := range sales {
		report.Sales = append(report.Sales, *sale)
	}
	report.Expenses = make([]model.Expense, 0, len(expenses))
	for _, expense := range expenses {
		report.Expenses = append(report.Expenses, *expense)
	}

	return report, nil
}
