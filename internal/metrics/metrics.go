package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BroadcastsTotal counts realtime messages published per event type.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_total",
			Help: "Realtime messages published to document channels.",
		},
		[]string{"type"},
	)

	// DroppedEventsTotal counts realtime events discarded before broadcast.
	DroppedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_dropped_events_total",
			Help: "Realtime events discarded without persisting or broadcasting.",
		},
		[]string{"type", "reason"},
	)

	// FileUploadsTotal counts attachment uploads.
	FileUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Attachment uploads accepted.",
		},
	)

	// FileUploadBytes sums uploaded attachment sizes.
	FileUploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_upload_bytes_total",
			Help: "Bytes of attachment data accepted.",
		},
	)
)

// Handler exposes the prometheus registry for the /metrics route
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
