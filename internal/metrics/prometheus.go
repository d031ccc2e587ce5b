package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafehub_scans_total",
		Help: "Total barcode scans by category and result",
	}, []string{"category", "result"})

	FreeVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafehub_free_visits_total",
		Help: "Total free visits granted by category",
	}, []string{"category"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cafehub_barcode_render_duration_seconds",
		Help:    "Time to render a barcode image",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"format"})

	BarcodesRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafehub_barcodes_repaired_total",
		Help: "Total client barcodes regenerated by the repair pass",
	})

	TelegramSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafehub_telegram_sends_total",
		Help: "Total Telegram deliveries by kind and result",
	}, []string{"kind", "result"})

	StationConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafehub_station_connections",
		Help: "Current number of connected scan stations",
	})

	StationConnectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cafehub_station_connection_duration_seconds",
		Help:    "Duration of scan station WebSocket connections",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"station_id"})

	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafehub_sse_clients",
		Help: "Current number of SSE clients connected",
	})
)

func IncScan(category string, result string) {
	label := strings.TrimSpace(category)
	if label == "" {
		label = "unknown"
	}
	outcome := strings.TrimSpace(result)
	if outcome == "" {
		outcome = "error"
	}
	ScansTotal.WithLabelValues(label, outcome).Inc()
}

func IncFreeVisit(category string) {
	label := strings.TrimSpace(category)
	if label == "" {
		label = "unknown"
	}
	FreeVisitsTotal.WithLabelValues(label).Inc()
}

func ObserveRenderDuration(format string, duration time.Duration) {
	label := strings.TrimSpace(format)
	if label == "" {
		label = "unknown"
	}
	RenderDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func AddBarcodesRepaired(count int) {
	if count > 0 {
		BarcodesRepaired.Add(float64(count))
	}
}

func IncTelegramSend(kind string, success bool) {
	label := strings.TrimSpace(kind)
	if label == "" {
		label = "message"
	}
	result := "ok"
	if !success {
		result = "error"
	}
	TelegramSendsTotal.WithLabelValues(label, result).Inc()
}

func SetStationConnections(count int) {
	if count < 0 {
		count = 0
	}
	StationConnections.Set(float64(count))
}

func ObserveStationConnectionDuration(stationID string, duration time.Duration) {
	label := strings.TrimSpace(stationID)
	if label == "" {
		label = "unknown"
	}
	StationConnectionDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func SetSSEClients(count int) {
	if count < 0 {
		count = 0
	}
	SSEClients.Set(float64(count))
}
