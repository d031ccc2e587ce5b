package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	inputsanitize "github.com/shatlykos/cafe-management-system/internal/api/sanitize"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/service"
)

type MenuHandler struct {
	menuService *service.MenuService
}

type ingredientRequest struct {
	Name         string          `json:"name" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Supplier     *string         `json:"supplier"`
	Notes        *string         `json:"notes"`
}

type dishRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"required"`
	Description *string         `json:"description"`
}

type recipeItemRequest struct {
	IngredientID int64           `json:"ingredient_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

func NewMenuHandler(menuService *service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

func RegisterMenuRoutes(group *gin.RouterGroup, menuService *service.MenuService) {
	if menuService == nil {
		return
	}

	handler := NewMenuHandler(menuService)

	ingredients := group.Group("/ingredients")
	ingredients.Use(middleware.JWTAuth())
	ingredients.GET("", handler.ListIngredients)
	ingredients.POST("", handler.CreateIngredient)
	ingredients.GET("/:id", handler.GetIngredient)
	ingredients.PUT("/:id", handler.UpdateIngredient)
	ingredients.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), handler.DeleteIngredient)

	dishes := group.Group("/dishes")
	dishes.Use(middleware.JWTAuth())
	dishes.GET("", handler.ListDishes)
	dishes.POST("", handler.CreateDish)
	dishes.GET("/:id", handler.GetDish)
	dishes.PUT("/:id", handler.UpdateDish)
	dishes.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), handler.DeleteDish)
	dishes.GET("/:id/recipe", handler.Recipe)
	dishes.PUT("/:id/recipe", handler.SetRecipeItem)
	dishes.DELETE("/:id/recipe/:ingredient_id", handler.RemoveRecipeItem)
	dishes.GET("/:id/cost", handler.DishCost)

	group.GET("/menu", middleware.JWTAuth(), handler.Menu)
}

// ListIngredients
// @Summary ListIngredients
// @Description Auto-generated endpoint documentation for ListIngredients.
// @Tags menu
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/ingredients [get]
func (h *MenuHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.menuService.ListIngredients(c.Request.Context())
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, ingredients)
}

// CreateIngredient
// @Summary CreateIngredient
// @Description Auto-generated endpoint documentation for CreateIngredient.
// @Tags menu
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/ingredients [post]
func (h *MenuHandler) CreateIngredient(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	ingredient, err := h.menuService.CreateIngredient(c.Request.Context(), service.IngredientRequest{
		Name:         inputsanitize.Text(req.Name),
		Unit:         inputsanitize.Text(req.Unit),
		PricePerUnit: req.PricePerUnit,
		Supplier:     inputsanitize.TextPtr(req.Supplier),
		Notes:        inputsanitize.TextPtr(req.Notes),
	})
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, ingredient)
}

// GetIngredient
// @Summary GetIngredient
// @Description Auto-generated endpoint documentation for GetIngredient.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/ingredients/{id} [get]
func (h *MenuHandler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ingredient, err := h.menuService.GetIngredient(c.Request.Context(), id)
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, ingredient)
}

// UpdateIngredient
// @Summary UpdateIngredient
// @Description Auto-generated endpoint documentation for UpdateIngredient.
// @Tags menu
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/ingredients/{id} [put]
func (h *MenuHandler) UpdateIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	ingredient, err := h.menuService.UpdateIngredient(c.Request.Context(), id, service.IngredientRequest{
		Name:         inputsanitize.Text(req.Name),
		Unit:         inputsanitize.Text(req.Unit),
		PricePerUnit: req.PricePerUnit,
		Supplier:     inputsanitize.TextPtr(req.Supplier),
		Notes:        inputsanitize.TextPtr(req.Notes),
	})
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, ingredient)
}

// DeleteIngredient
// @Summary DeleteIngredient
// @Description Auto-generated endpoint documentation for DeleteIngredient.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/ingredients/{id} [delete]
func (h *MenuHandler) DeleteIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.menuService.DeleteIngredient(c.Request.Context(), id); err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// ListDishes
// @Summary ListDishes
// @Description Auto-generated endpoint documentation for ListDishes.
// @Tags menu
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/dishes [get]
func (h *MenuHandler) ListDishes(c *gin.Context) {
	dishes, err := h.menuService.ListDishes(c.Request.Context())
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, dishes)
}

// CreateDish
// @Summary CreateDish
// @Description Auto-generated endpoint documentation for CreateDish.
// @Tags menu
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/dishes [post]
func (h *MenuHandler) CreateDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	dish, err := h.menuService.CreateDish(c.Request.Context(), service.DishRequest{
		Name:     inputsanitize.Text(req.Name),
		Price:    req.Price,
		Category: inputsanitize.Text(req.Category),
		// Descriptions may carry limited markup for the dashboard menu card.
		Description: inputsanitize.MarkdownPtr(req.Description),
	})
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, dish)
}

// GetDish
// @Summary GetDish
// @Description Auto-generated endpoint documentation for GetDish.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id} [get]
func (h *MenuHandler) GetDish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	dish, err := h.menuService.GetDish(c.Request.Context(), id)
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, dish)
}

// UpdateDish
// @Summary UpdateDish
// @Description Auto-generated endpoint documentation for UpdateDish.
// @Tags menu
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id} [put]
func (h *MenuHandler) UpdateDish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	dish, err := h.menuService.UpdateDish(c.Request.Context(), id, service.DishRequest{
		Name:        inputsanitize.Text(req.Name),
		Price:       req.Price,
		Category:    inputsanitize.Text(req.Category),
		Description: inputsanitize.MarkdownPtr(req.Description),
	})
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, dish)
}

// DeleteDish
// @Summary DeleteDish
// @Description Auto-generated endpoint documentation for DeleteDish.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id} [delete]
func (h *MenuHandler) DeleteDish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.menuService.DeleteDish(c.Request.Context(), id); err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// Recipe
// @Summary Recipe
// @Description Auto-generated endpoint documentation for Recipe.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id}/recipe [get]
func (h *MenuHandler) Recipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.menuService.Recipe(c.Request.Context(), id)
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, items)
}

// SetRecipeItem
// @Summary SetRecipeItem
// @Description Auto-generated endpoint documentation for SetRecipeItem.
// @Tags menu
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id}/recipe [put]
func (h *MenuHandler) SetRecipeItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req recipeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	item, err := h.menuService.SetRecipeItem(c.Request.Context(), id, req.IngredientID, req.Quantity)
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// RemoveRecipeItem
// @Summary RemoveRecipeItem
// @Description Auto-generated endpoint documentation for RemoveRecipeItem.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param ingredient_id path int true "ingredient_id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id}/recipe/{ingredient_id} [delete]
func (h *MenuHandler) RemoveRecipeItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ingredientID, ok := pathID(c, "ingredient_id")
	if !ok {
		return
	}

	if err := h.menuService.RemoveRecipeItem(c.Request.Context(), id, ingredientID); err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// DishCost
// @Summary DishCost
// @Description Auto-generated endpoint documentation for DishCost.
// @Tags menu
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/dishes/{id}/cost [get]
func (h *MenuHandler) DishCost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.menuService.MenuEntry(c.Request.Context(), id)
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, entry)
}

// Menu
// @Summary Menu
// @Description Auto-generated endpoint documentation for Menu.
// @Tags menu
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/menu [get]
func (h *MenuHandler) Menu(c *gin.Context) {
	entries, err := h.menuService.Menu(c.Request.Context())
	if err != nil {
		handleMenuServiceError(c, err)
		return
	}

	response.Success(c, entries)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid "+name)
		return 0, false
	}
	return id, true
}

func handleMenuServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDishNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrDishNotFound, "dish not found")
	case errors.Is(err, service.ErrIngredientNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrIngredientNotFound, "ingredient not found")
	case errors.Is(err, service.ErrNameTaken):
		response.Fail(c, http.StatusConflict, response.ErrNameTaken, "name already taken")
	case errors.Is(err, service.ErrDishInUse):
		response.Fail(c, http.StatusConflict, response.ErrDishInUse, "dish has recorded sales")
	case errors.Is(err, service.ErrInvalidMenuInput):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid input")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
