package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/service"
)

type ScanHandler struct {
	scanService *service.ScanService
}

type scanRequest struct {
	Code     string `json:"code" binding:"required"`
	Category string `json:"category"`
}

type registerVisitRequest struct {
	Category  string `json:"category" binding:"required"`
	VisitedOn string `json:"visited_on"`
}

func NewScanHandler(scanService *service.ScanService) *ScanHandler {
	return &ScanHandler{scanService: scanService}
}

func RegisterScanRoutes(group *gin.RouterGroup, scanService *service.ScanService) {
	if scanService == nil {
		return
	}

	handler := NewScanHandler(scanService)

	group.POST("/scan", middleware.JWTAuth(), handler.Scan)

	clients := group.Group("/clients")
	clients.Use(middleware.JWTAuth())
	clients.POST("/:id/visits", handler.RegisterVisit)
	clients.GET("/:id/visits", handler.History)
	clients.GET("/:id/stats", handler.Stats)

	group.GET("/dashboard/summary", middleware.JWTAuth(), handler.Summary)
}

// Scan
// @Summary Scan
// @Description Auto-generated endpoint documentation for Scan.
// @Tags scan
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/scan [post]
func (h *ScanHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	category := visitCategoryOrDefault(req.Category)
	result, err := h.scanService.Scan(c.Request.Context(), req.Code, category)
	if err != nil {
		handleScanServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// RegisterVisit
// @Summary RegisterVisit
// @Description Auto-generated endpoint documentation for RegisterVisit.
// @Tags scan
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/clients/{id}/visits [post]
func (h *ScanHandler) RegisterVisit(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	var req registerVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	visitedOn := time.Time{}
	if raw := strings.TrimSpace(req.VisitedOn); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid visited_on")
			return
		}
		visitedOn = parsed
	}

	result, err := h.scanService.RegisterVisit(
		c.Request.Context(),
		clientID,
		model.VisitCategory(strings.ToLower(strings.TrimSpace(req.Category))),
		visitedOn,
	)
	if err != nil {
		handleScanServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// History
// @Summary History
// @Description Auto-generated endpoint documentation for History.
// @Tags scan
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/clients/{id}/visits [get]
func (h *ScanHandler) History(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	category := visitCategoryOrDefault(c.Query("category"))
	visits, err := h.scanService.History(c.Request.Context(), clientID, category)
	if err != nil {
		handleScanServiceError(c, err)
		return
	}

	response.Success(c, visits)
}

// Stats
// @Summary Stats
// @Description Auto-generated endpoint documentation for Stats.
// @Tags scan
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/clients/{id}/stats [get]
func (h *ScanHandler) Stats(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	breakfast, err := h.scanService.StatsFor(c.Request.Context(), clientID, model.CategoryBreakfast)
	if err != nil {
		handleScanServiceError(c, err)
		return
	}
	coffee, err := h.scanService.StatsFor(c.Request.Context(), clientID, model.CategoryCoffee)
	if err != nil {
		handleScanServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"breakfast": breakfast,
		"coffee":    coffee,
	})
}

// Summary
// @Summary Summary
// @Description Auto-generated endpoint documentation for Summary.
// @Tags scan
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/dashboard/summary [get]
func (h *ScanHandler) Summary(c *gin.Context) {
	summary, err := h.scanService.Summary(c.Request.Context())
	if err != nil {
		handleScanServiceError(c, err)
		return
	}

	response.Success(c, summary)
}

func visitCategoryOrDefault(raw string) model.VisitCategory {
	category := model.VisitCategory(strings.ToLower(strings.TrimSpace(raw)))
	if category == "" {
		return model.CategoryBreakfast
	}
	return category
}

func handleScanServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrClientNotFound, "client not found")
	case errors.Is(err, service.ErrInvalidScanInput):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "empty code")
	case errors.Is(err, service.ErrInvalidCategory):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidCategory, "unknown visit category")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
