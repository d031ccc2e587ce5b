package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	inputsanitize "github.com/shatlykos/cafe-management-system/internal/api/sanitize"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/station"
	cryptoutil "github.com/shatlykos/cafe-management-system/pkg/crypto"
)

type StationHandler struct {
	gateway *station.Gateway
	secret  string

	upgrader websocket.Upgrader
}

type stationNoticeRequest struct {
	Text string `json:"text" binding:"required"`
}

func NewStationHandler(gateway *station.Gateway, secret string) *StationHandler {
	return &StationHandler{
		gateway: gateway,
		secret:  strings.TrimSpace(secret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

func RegisterStationRoutes(group *gin.RouterGroup, gateway *station.Gateway, secret string) {
	if gateway == nil {
		return
	}

	handler := NewStationHandler(gateway, secret)

	stations := group.Group("/stations")
	stations.GET("/ws", handler.Connect)
	stations.GET("", middleware.JWTAuth(), handler.List)
	stations.POST("/:id/ping", middleware.JWTAuth(), handler.Ping)
	stations.POST("/:id/notice", middleware.JWTAuth(), middleware.RequireRole(model.RoleAdmin), handler.Notice)
}

// Connect
// @Summary Connect
// @Description Auto-generated endpoint documentation for Connect.
// @Tags station
// @Accept json
// @Produce json
// @Param station_id query string true "station id"
// @Param token query string true "HMAC token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/stations/ws [get]
func (h *StationHandler) Connect(c *gin.Context) {
	stationID := strings.TrimSpace(c.Query("station_id"))
	token := strings.TrimSpace(c.Query("token"))
	if stationID == "" || token == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	if !cryptoutil.VerifyStationHMACToken(stationID, token, h.secret) {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := station.NewClient(stationID, conn, h.gateway)
	h.gateway.Register(client)
	client.Start()
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags station
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/stations [get]
func (h *StationHandler) List(c *gin.Context) {
	response.Success(c, h.gateway.Stations())
}

// Ping
// @Summary Ping
// @Description Auto-generated endpoint documentation for Ping.
// @Tags station
// @Produce json
// @Param id path string true "station id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 504 {object} response.Response
// @Router /api/v1/stations/{id}/ping [post]
func (h *StationHandler) Ping(c *gin.Context) {
	stationID := strings.TrimSpace(c.Param("id"))
	if stationID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid station id")
		return
	}

	started := time.Now()
	if err := h.gateway.PingStation(c.Request.Context(), stationID, 3*time.Second); err != nil {
		if errors.Is(err, station.ErrStationNotConnected) {
			response.Fail(c, http.StatusNotFound, response.ErrClientNotFound, "station not connected")
			return
		}
		response.Fail(c, http.StatusGatewayTimeout, response.ErrInternal, "station did not answer")
		return
	}

	response.Success(c, gin.H{
		"station_id": stationID,
		"rtt_ms":     time.Since(started).Milliseconds(),
	})
}

// Notice
// @Summary Notice
// @Description Auto-generated endpoint documentation for Notice.
// @Tags station
// @Accept json
// @Produce json
// @Param id path string true "station id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/stations/{id}/notice [post]
func (h *StationHandler) Notice(c *gin.Context) {
	stationID := strings.TrimSpace(c.Param("id"))
	if stationID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid station id")
		return
	}

	var req stationNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	acked, err := h.gateway.SendNoticeAndWaitAck(c.Request.Context(), stationID, inputsanitize.Text(req.Text), 10*time.Second)
	if err != nil {
		if errors.Is(err, station.ErrStationNotConnected) {
			response.Fail(c, http.StatusNotFound, response.ErrClientNotFound, "station not connected")
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "notice failed")
		return
	}

	response.Success(c, gin.H{
		"station_id": stationID,
		"acked":      acked,
	})
}
