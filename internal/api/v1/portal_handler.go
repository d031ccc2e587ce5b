package v1

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shatlykos/cafe-management-system/internal/barcode"
	"github.com/shatlykos/cafe-management-system/internal/loyalty"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/service"
	tplfs "github.com/shatlykos/cafe-management-system/templates"
)

type PortalHandler struct {
	clientService *service.ClientService
	scanService   *service.ScanService
	tmpl          *template.Template
	logger        *zap.Logger
}

type portalPageData struct {
	Client          *model.Client
	BarcodeSVG      template.HTML
	BreakfastStats  loyalty.VisitStats
	CoffeeStats     loyalty.VisitStats
	BreakfastVisits []*model.Visit
	CoffeeVisits    []*model.Visit
	Events          []*model.ClientEvent
}

func NewPortalHandler(
	clientService *service.ClientService,
	scanService *service.ScanService,
	logger *zap.Logger,
) (*PortalHandler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.ParseFS(tplfs.PortalFS, "portal.html")
	if err != nil {
		return nil, err
	}

	return &PortalHandler{
		clientService: clientService,
		scanService:   scanService,
		tmpl:          tmpl,
		logger:        logger,
	}, nil
}

func RegisterPortalRoutes(
	router gin.IRoutes,
	clientService *service.ClientService,
	scanService *service.ScanService,
	logger *zap.Logger,
) error {
	if clientService == nil || scanService == nil {
		return errors.New("portal requires client and scan services")
	}

	handler, err := NewPortalHandler(clientService, scanService, logger)
	if err != nil {
		return err
	}

	router.GET("/portal/:token", handler.Page)
	return nil
}

// Page
// @Summary Page
// @Description Auto-generated endpoint documentation for Page.
// @Tags portal
// @Produce html
// @Param token path string true "history token"
// @Success 200 {string} string
// @Failure 404 {string} string
// @Router /portal/{token} [get]
func (h *PortalHandler) Page(c *gin.Context) {
	ctx := c.Request.Context()

	token := strings.TrimSpace(c.Param("token"))
	client, err := h.clientService.FindByHistoryToken(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			h.render(c, http.StatusNotFound, portalPageData{})
			return
		}
		h.logger.Error("portal lookup failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	data := portalPageData{Client: client}

	if client.Barcode != "" {
		svg, err := barcode.RenderSVG(client.Barcode, barcode.DefaultSVGOptions())
		if err != nil {
			h.logger.Warn("portal barcode render failed",
				zap.Int64("client_id", client.ID),
				zap.Error(err),
			)
		} else {
			// #nosec G203 -- markup comes from our own renderer, not user input.
			data.BarcodeSVG = template.HTML(svg)
		}
	}

	if stats, err := h.scanService.StatsFor(ctx, client.ID, model.CategoryBreakfast); err == nil {
		data.BreakfastStats = stats
	}
	if stats, err := h.scanService.StatsFor(ctx, client.ID, model.CategoryCoffee); err == nil {
		data.CoffeeStats = stats
	}
	if visits, err := h.scanService.History(ctx, client.ID, model.CategoryBreakfast); err == nil {
		data.BreakfastVisits = visits
	}
	if visits, err := h.scanService.History(ctx, client.ID, model.CategoryCoffee); err == nil {
		data.CoffeeVisits = visits
	}
	if events, err := h.clientService.Events(ctx, client.ID); err == nil {
		data.Events = events
	}

	h.clientService.LogEvent(ctx, client.ID, model.EventPortalViewed, "")

	h.render(c, http.StatusOK, data)
}

func (h *PortalHandler) render(c *gin.Context, status int, data portalPageData) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("portal render failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
