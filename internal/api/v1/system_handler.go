package v1

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	"github.com/shatlykos/cafe-management-system/internal/api/response"
	"github.com/shatlykos/cafe-management-system/internal/model"
	systemlog "github.com/shatlykos/cafe-management-system/pkg/logger"
)

type hostStats struct {
	CPUPercent float64
	MemPercent float64
	MemUsed    uint64
	MemTotal   uint64
	UptimeSec  uint64
}

type SystemHandler struct {
	logStore *systemlog.SystemLogStore

	hostStatsFn func(ctx context.Context) (hostStats, error)
}

func NewSystemHandler(logStore *systemlog.SystemLogStore) *SystemHandler {
	return &SystemHandler{
		logStore:    logStore,
		hostStatsFn: collectHostStats,
	}
}

func RegisterSystemRoutes(group *gin.RouterGroup, logStore *systemlog.SystemLogStore) {
	handler := NewSystemHandler(logStore)
	system := group.Group("/system")
	system.GET("/logs", middleware.JWTAuth(), handler.QueryLogs)
	system.GET("/status", middleware.JWTAuth(), handler.Status)
	system.GET("/maintenance", middleware.JWTAuth(), handler.MaintenanceStatus)
	system.PUT("/maintenance", middleware.JWTAuth(), handler.SetMaintenance)
}

type setMaintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// QueryLogs
// @Summary QueryLogs
// @Description Auto-generated endpoint documentation for QueryLogs.
// @Tags system
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/system/logs [get]
func (h *SystemHandler) QueryLogs(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}
	if !isAdmin(claims.Role) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
		return
	}
	if h.logStore == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "log service unavailable")
		return
	}

	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)
	level := strings.TrimSpace(c.Query("level"))
	keyword := strings.TrimSpace(c.Query("keyword"))

	from, err := parseSystemLogTime(c.Query("from"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid from")
		return
	}
	to, err := parseSystemLogTime(c.Query("to"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid to")
		return
	}

	items, total := h.logStore.QueryLogs(level, from, to, keyword, page, pageSize)
	response.Paginated(c, items, page, pageSize, total)
}

// Status
// @Summary Status
// @Description Auto-generated endpoint documentation for Status.
// @Tags system
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/system/status [get]
func (h *SystemHandler) Status(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}
	if !isAdmin(claims.Role) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
		return
	}

	stats, err := h.hostStatsFn(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "collect host stats failed")
		return
	}

	response.Success(c, gin.H{
		"cpu_percent":  stats.CPUPercent,
		"mem_percent":  stats.MemPercent,
		"mem_used":     stats.MemUsed,
		"mem_total":    stats.MemTotal,
		"uptime_sec":   stats.UptimeSec,
		"goroutines":   runtime.NumGoroutine(),
		"go_version":   runtime.Version(),
		"maintenance":  middleware.IsMaintenanceMode(),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func collectHostStats(ctx context.Context) (hostStats, error) {
	// Short sampling window keeps the handler responsive.
	values, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return hostStats{}, err
	}
	var cpuPercent float64
	if len(values) > 0 {
		cpuPercent = values[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return hostStats{}, err
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return hostStats{}, err
	}

	return hostStats{
		CPUPercent: cpuPercent,
		MemPercent: vm.UsedPercent,
		MemUsed:    vm.Used,
		MemTotal:   vm.Total,
		UptimeSec:  uptime,
	}, nil
}

// MaintenanceStatus
// @Summary MaintenanceStatus
// @Description Auto-generated endpoint documentation for MaintenanceStatus.
// @Tags system
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/system/maintenance [get]
func (h *SystemHandler) MaintenanceStatus(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}
	if !isAdmin(claims.Role) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
		return
	}

	response.Success(c, gin.H{"enabled": middleware.IsMaintenanceMode()})
}

// SetMaintenance
// @Summary SetMaintenance
// @Description Auto-generated endpoint documentation for SetMaintenance.
// @Tags system
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/system/maintenance [put]
func (h *SystemHandler) SetMaintenance(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}
	if !isAdmin(claims.Role) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
		return
	}

	var req setMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, "invalid request")
		return
	}

	middleware.SetMaintenanceMode(*req.Enabled)
	response.Success(c, gin.H{"enabled": *req.Enabled})
}

func parseSystemLogTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.UTC(), nil
	}

	return time.Time{}, errors.New("invalid time")
}

func isAdmin(role string) bool {
	return strings.EqualFold(role, model.RoleAdmin)
}
