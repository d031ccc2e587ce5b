package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	"github.com/shatlykos/cafe-management-system/internal/barcode"
	"github.com/shatlykos/cafe-management-system/internal/metrics"
	"github.com/shatlykos/cafe-management-system/internal/service"
)

type BarcodeHandler struct {
	clientService *service.ClientService
}

func NewBarcodeHandler(clientService *service.ClientService) *BarcodeHandler {
	return &BarcodeHandler{clientService: clientService}
}

func RegisterBarcodeRoutes(group *gin.RouterGroup, clientService *service.ClientService) {
	if clientService == nil {
		return
	}

	handler := NewBarcodeHandler(clientService)

	clients := group.Group("/clients")
	clients.Use(middleware.JWTAuth())
	clients.GET("/:id/barcode.png", handler.RenderPNG)
	clients.GET("/:id/barcode.svg", handler.RenderSVG)

	group.GET("/barcodes/validate", middleware.JWTAuth(), handler.Validate)
}

// RenderPNG
// @Summary RenderPNG
// @Description Auto-generated endpoint documentation for RenderPNG.
// @Tags barcode
// @Produce png
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/clients/{id}/barcode.png [get]
func (h *BarcodeHandler) RenderPNG(c *gin.Context) {
	code, ok := h.clientBarcode(c)
	if !ok {
		return
	}

	opts := barcode.DefaultPNGOptions()
	if scale := c.Query("scale"); scale != "" {
		if px, err := strconv.Atoi(scale); err == nil && px > 0 && px <= 16 {
			opts.ModulePx = px
		}
	}

	started := time.Now()
	data, err := barcode.RenderPNG(code, opts)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "render failed")
		return
	}
	metrics.ObserveRenderDuration("png", time.Since(started))

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// RenderSVG
// @Summary RenderSVG
// @Description Auto-generated endpoint documentation for RenderSVG.
// @Tags barcode
// @Produce html
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {string} string
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/clients/{id}/barcode.svg [get]
func (h *BarcodeHandler) RenderSVG(c *gin.Context) {
	code, ok := h.clientBarcode(c)
	if !ok {
		return
	}

	started := time.Now()
	markup, err := barcode.RenderSVG(code, barcode.DefaultSVGOptions())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "render failed")
		return
	}
	metrics.ObserveRenderDuration("svg", time.Since(started))

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(markup))
}

// Validate
// @Summary Validate
// @Description Auto-generated endpoint documentation for Validate.
// @Tags barcode
// @Produce json
// @Param code query string true "code"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/barcodes/validate [get]
func (h *BarcodeHandler) Validate(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "code is required")
		return
	}

	response.Success(c, gin.H{
		"code":  code,
		"valid": barcode.Valid(code),
	})
}

// clientBarcode resolves the path client and returns its stored code.
func (h *BarcodeHandler) clientBarcode(c *gin.Context) (string, bool) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return "", false
	}

	client, err := h.clientService.Get(c.Request.Context(), clientID)
	if err != nil {
		handleClientServiceError(c, err)
		return "", false
	}
	if client.Barcode == "" {
		response.Fail(c, http.StatusNotFound, response.ErrInvalidCode, "client has no barcode")
		return "", false
	}

	return client.Barcode, true
}
