package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	inputsanitize "github.com/shatlykos/cafe-management-system/internal/api/sanitize"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	"github.com/shatlykos/cafe-management-system/internal/service"
)

const financeDateLayout = "2006-01-02"

type FinanceHandler struct {
	financeService *service.FinanceService
}

type expenseRequest struct {
	SpentOn     string          `json:"spent_on" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description *string         `json:"description"`
}

type saleRequest struct {
	SoldOn   string `json:"sold_on" binding:"required"`
	DishID   int64  `json:"dish_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

func NewFinanceHandler(financeService *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

func RegisterFinanceRoutes(group *gin.RouterGroup, financeService *service.FinanceService) {
	if financeService == nil {
		return
	}

	handler := NewFinanceHandler(financeService)

	expenses := group.Group("/expenses")
	expenses.Use(middleware.JWTAuth())
	expenses.GET("", handler.ListExpenses)
	expenses.POST("", handler.AddExpense)
	expenses.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), handler.DeleteExpense)

	sales := group.Group("/sales")
	sales.Use(middleware.JWTAuth())
	sales.GET("", handler.ListSales)
	sales.POST("", handler.AddSale)
	sales.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), handler.DeleteSale)

	group.GET("/reports/financial", middleware.JWTAuth(), handler.Report)
}

// ListExpenses
// @Summary ListExpenses
// @Description Auto-generated endpoint documentation for ListExpenses.
// @Tags finance
// @Produce json
// @Param from query string false "from date YYYY-MM-DD"
// @Param to query string false "to date YYYY-MM-DD"
// @Param category query string false "category"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/expenses [get]
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	filter := repository.ExpenseFilter{From: from, To: to}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		sanitized := inputsanitize.Text(category)
		filter.Category = &sanitized
	}

	expenses, err := h.financeService.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, expenses)
}

// AddExpense
// @Summary AddExpense
// @Description Auto-generated endpoint documentation for AddExpense.
// @Tags finance
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/expenses [post]
func (h *FinanceHandler) AddExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	spentOn, err := time.Parse(financeDateLayout, strings.TrimSpace(req.SpentOn))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid spent_on")
		return
	}

	expense, err := h.financeService.AddExpense(c.Request.Context(), service.ExpenseRequest{
		SpentOn:     spentOn,
		Category:    inputsanitize.Text(req.Category),
		Amount:      req.Amount,
		Description: inputsanitize.TextPtr(req.Description),
	})
	if err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, expense)
}

// DeleteExpense
// @Summary DeleteExpense
// @Description Auto-generated endpoint documentation for DeleteExpense.
// @Tags finance
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/expenses/{id} [delete]
func (h *FinanceHandler) DeleteExpense(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.financeService.DeleteExpense(c.Request.Context(), id); err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// ListSales
// @Summary ListSales
// @Description Auto-generated endpoint documentation for ListSales.
// @Tags finance
// @Produce json
// @Param from query string false "from date YYYY-MM-DD"
// @Param to query string false "to date YYYY-MM-DD"
// @Param dish_id query int false "dish id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/sales [get]
func (h *FinanceHandler) ListSales(c *gin.Context) {
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	filter := repository.SaleFilter{From: from, To: to}
	if raw := strings.TrimSpace(c.Query("dish_id")); raw != "" {
		dishID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || dishID <= 0 {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid dish_id")
			return
		}
		filter.DishID = &dishID
	}

	sales, err := h.financeService.ListSales(c.Request.Context(), filter)
	if err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, sales)
}

// AddSale
// @Summary AddSale
// @Description Auto-generated endpoint documentation for AddSale.
// @Tags finance
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/sales [post]
func (h *FinanceHandler) AddSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	soldOn, err := time.Parse(financeDateLayout, strings.TrimSpace(req.SoldOn))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid sold_on")
		return
	}

	sale, err := h.financeService.AddSale(c.Request.Context(), service.SaleRequest{
		SoldOn:   soldOn,
		DishID:   req.DishID,
		Quantity: req.Quantity,
	})
	if err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, sale)
}

// DeleteSale
// @Summary DeleteSale
// @Description Auto-generated endpoint documentation for DeleteSale.
// @Tags finance
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/sales/{id} [delete]
func (h *FinanceHandler) DeleteSale(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.financeService.DeleteSale(c.Request.Context(), id); err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// Report
// @Summary Report
// @Description Auto-generated endpoint documentation for Report.
// @Tags finance
// @Produce json
// @Param from query string false "from date YYYY-MM-DD"
// @Param to query string false "to date YYYY-MM-DD"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/reports/financial [get]
func (h *FinanceHandler) Report(c *gin.Context) {
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	fromValue := time.Time{}
	if from != nil {
		fromValue = *from
	}
	toValue := time.Time{}
	if to != nil {
		toValue = *to
	}

	report, err := h.financeService.Report(c.Request.Context(), fromValue, toValue)
	if err != nil {
		handleFinanceServiceError(c, err)
		return
	}

	response.Success(c, report)
}

// dateRangeQuery parses optional from/to query params as YYYY-MM-DD.
func dateRangeQuery(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse(financeDateLayout, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRange, "invalid from date")
			return nil, nil, false
		}
		from = &parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse(financeDateLayout, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRange, "invalid to date")
			return nil, nil, false
		}
		to = &parsed
	}
	if from != nil && to != nil && from.After(*to) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRange, "from is after to")
		return nil, nil, false
	}

	return from, to, true
}

func handleFinanceServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExpenseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExpenseNotFound, "expense not found")
	case errors.Is(err, service.ErrSaleNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSaleNotFound, "sale not found")
	case errors.Is(err, service.ErrDishNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrDishNotFound, "dish not found")
	case errors.Is(err, service.ErrInvalidFinanceInput):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid input")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
