package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	"github.com/shatlykos/cafe-management-system/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func RegisterExportRoutes(group *gin.RouterGroup, exportService *service.ExportService) {
	if exportService == nil {
		return
	}

	handler := NewExportHandler(exportService)

	exports := group.Group("/exports")
	exports.Use(middleware.JWTAuth())
	exports.GET("/menu.xlsx", handler.Menu)
	exports.GET("/tech-cards.xlsx", handler.TechCards)
	exports.GET("/financial-report.xlsx", handler.FinancialReport)
}

// Menu
// @Summary Menu
// @Description Auto-generated endpoint documentation for Menu.
// @Tags export
// @Produce octet-stream
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/exports/menu.xlsx [get]
func (h *ExportHandler) Menu(c *gin.Context) {
	data, err := h.exportService.MenuWorkbook(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "export failed")
		return
	}

	serveWorkbook(c, "cafe_menu.xlsx", data)
}

// TechCards
// @Summary TechCards
// @Description Auto-generated endpoint documentation for TechCards.
// @Tags export
// @Produce octet-stream
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/exports/tech-cards.xlsx [get]
func (h *ExportHandler) TechCards(c *gin.Context) {
	data, err := h.exportService.TechCardsWorkbook(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "export failed")
		return
	}

	serveWorkbook(c, "tech_cards.xlsx", data)
}

// FinancialReport
// @Summary FinancialReport
// @Description Auto-generated endpoint documentation for FinancialReport.
// @Tags export
// @Produce octet-stream
// @Param from query string false "from date YYYY-MM-DD"
// @Param to query string false "to date YYYY-MM-DD"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/exports/financial-report.xlsx [get]
func (h *ExportHandler) FinancialReport(c *gin.Context) {
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

	data, err := h.exportService.FinancialReportWorkbook(c.Request.Context(), fromValue, toValue)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "export failed")
		return
	}

	serveWorkbook(c, "financial_report.xlsx", data)
}

func serveWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, xlsxContentType, data)
}
