package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	inputsanitize "github.com/shatlykos/cafe-management-system/internal/api/sanitize"
	"github.com/shatlykos/cafe-management-system/internal/barcode"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	"github.com/shatlykos/cafe-management-system/internal/service"
)

type ClientHandler struct {
	clientService   *service.ClientService
	telegramService *service.TelegramService
}

type createClientRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

type updateClientRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

type sendCardRequest struct {
	ChatID int64 `json:"chat_id"`
}

func NewClientHandler(clientService *service.ClientService, telegramService *service.TelegramService) *ClientHandler {
	return &ClientHandler{
		clientService:   clientService,
		telegramService: telegramService,
	}
}

func RegisterClientRoutes(group *gin.RouterGroup, clientService *service.ClientService, telegramService *service.TelegramService) {
	if clientService == nil {
		return
	}

	handler := NewClientHandler(clientService, telegramService)
	clients := group.Group("/clients")
	clients.Use(middleware.JWTAuth())

	clients.GET("", handler.List)
	clients.POST("", handler.Create)
	clients.GET("/:id", handler.GetByID)
	clients.PUT("/:id", handler.Update)
	clients.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), handler.Delete)
	clients.GET("/:id/events", handler.Events)
	clients.POST("/:id/send-card", handler.SendCard)
	clients.POST("/repair-barcodes", middleware.RequireRole(model.RoleAdmin), handler.RepairBarcodes)
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags client
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	filter := repository.ClientListFilter{
		Pagination: repository.Pagination{
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		},
	}
	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		sanitized := inputsanitize.Text(keyword)
		filter.Keyword = &sanitized
	}
	if linkedRaw := strings.TrimSpace(c.Query("linked")); linkedRaw != "" {
		linked, err := strconv.ParseBool(linkedRaw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid linked filter")
			return
		}
		filter.Linked = &linked
	}

	clients, total, err := h.clientService.List(c.Request.Context(), filter)
	if err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Paginated(c, clients, page, pageSize, total)
}

// Create
// @Summary Create
// @Description Auto-generated endpoint documentation for Create.
// @Tags client
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), service.CreateClientRequest{
		Name:  inputsanitize.Text(req.Name),
		Phone: inputsanitize.TextPtr(req.Phone),
		Notes: inputsanitize.TextPtr(req.Notes),
	})
	if err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, client)
}

// GetByID
// @Summary GetByID
// @Description Auto-generated endpoint documentation for GetByID.
// @Tags client
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	client, err := h.clientService.Get(c.Request.Context(), clientID)
	if err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, client)
}

// Update
// @Summary Update
// @Description Auto-generated endpoint documentation for Update.
// @Tags client
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), clientID, service.UpdateClientRequest{
		Name:  inputsanitize.TextPtr(req.Name),
		Phone: inputsanitize.TextPtr(req.Phone),
		Notes: inputsanitize.TextPtr(req.Notes),
	})
	if err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, client)
}

// Delete
// @Summary Delete
// @Description Auto-generated endpoint documentation for Delete.
// @Tags client
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), clientID); err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "client deleted"})
}

// Events
// @Summary Events
// @Description Auto-generated endpoint documentation for Events.
// @Tags client
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/clients/{id}/events [get]
func (h *ClientHandler) Events(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	events, err := h.clientService.Events(c.Request.Context(), clientID)
	if err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, events)
}

// SendCard
// @Summary SendCard
// @Description Auto-generated endpoint documentation for SendCard.
// @Tags client
// @Accept json
// @Produce json
// @Param id path int true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/clients/{id}/send-card [post]
func (h *ClientHandler) SendCard(c *gin.Context) {
	if h.telegramService == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "telegram is not configured")
		return
	}

	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	// Body is optional, chat id falls back to the linked chat.
	var req sendCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.ChatID = 0
	}

	if err := h.telegramService.SendCard(c.Request.Context(), clientID, req.ChatID); err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "card sent"})
}

// RepairBarcodes
// @Summary RepairBarcodes
// @Description Auto-generated endpoint documentation for RepairBarcodes.
// @Tags client
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/clients/repair-barcodes [post]
func (h *ClientHandler) RepairBarcodes(c *gin.Context) {
	repaired, err := h.clientService.RepairBarcodes(c.Request.Context())
	if err != nil {
		handleClientServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"repaired": repaired})
}

func clientIDParam(c *gin.Context) (int64, bool) {
	clientID, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || clientID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid client id")
		return 0, false
	}
	return clientID, true
}

func parseIntOrDefault(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}

func handleClientServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrClientNotFound, "client not found")
	case errors.Is(err, service.ErrInvalidClientInput):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
	case errors.Is(err, service.ErrTelegramDisabled):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "telegram is not configured")
	case errors.Is(err, service.ErrChatNotLinked):
		response.Fail(c, http.StatusConflict, response.ErrChatNotLinked, "client has no telegram chat")
	case errors.Is(err, barcode.ErrInvalidCode):
		response.Fail(c, http.StatusConflict, response.ErrInvalidCode, "client barcode is invalid")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
