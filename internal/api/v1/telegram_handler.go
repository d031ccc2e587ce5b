package v1

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	"github.com/shatlykos/cafe-management-system/internal/service"
	"github.com/shatlykos/cafe-management-system/pkg/telegram"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type TelegramHandler struct {
	telegramService *service.TelegramService
	webhookSecret   string
}

func NewTelegramHandler(telegramService *service.TelegramService, webhookSecret string) *TelegramHandler {
	return &TelegramHandler{
		telegramService: telegramService,
		webhookSecret:   webhookSecret,
	}
}

func RegisterTelegramRoutes(group *gin.RouterGroup, telegramService *service.TelegramService, webhookSecret string) {
	if telegramService == nil || !telegramService.Enabled() {
		return
	}

	handler := NewTelegramHandler(telegramService, webhookSecret)

	group.POST(
		"/telegram/webhook",
		middleware.RateLimitByHeader(telegramSecretHeader, 300, time.Minute),
		handler.Webhook,
	)
}

// Webhook
// @Summary Webhook
// @Description Auto-generated endpoint documentation for Webhook.
// @Tags telegram
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/telegram/webhook [post]
func (h *TelegramHandler) Webhook(c *gin.Context) {
	if h.webhookSecret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
			return
		}
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		// Telegram retries on non-2xx, a malformed frame is dropped instead.
		response.Success(c, nil)
		return
	}

	h.telegramService.HandleUpdate(c.Request.Context(), update)
	response.Success(c, nil)
}
