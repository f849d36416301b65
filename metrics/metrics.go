// Package metrics provides Prometheus metrics for snap-tiers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts image uploads by result.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snaptiers",
			Name:      "uploads_total",
			Help:      "Total number of image uploads",
		},
		[]string{"result"},
	)

	// RendersTotal counts thumbnail renders by result.
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snaptiers",
			Name:      "renders_total",
			Help:      "Total number of thumbnail renders",
		},
		[]string{"result"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "snaptiers",
			Name:      "render_duration_seconds",
			Help:      "Duration of thumbnail renders in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// DownloadsTotal counts served downloads by kind (thumbnail, original, expiring).
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snaptiers",
			Name:      "downloads_total",
			Help:      "Total number of served downloads",
		},
		[]string{"kind"},
	)

	// DeniedTotal counts rejected downloads by internal reason.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snaptiers",
			Name:      "denied_total",
			Help:      "Total number of rejected download requests",
		},
		[]string{"kind", "reason"},
	)
)

func RecordUpload(result string) {
	UploadsTotal.WithLabelValues(result).Inc()
}

// RecordRender records a thumbnail render and its duration.
func RecordRender(result string, seconds float64) {
	RendersTotal.WithLabelValues(result).Inc()
	RenderDuration.Observe(seconds)
}

func RecordDownload(kind string) {
	DownloadsTotal.WithLabelValues(kind).Inc()
}

func RecordDenied(kind, reason string) {
	DeniedTotal.WithLabelValues(kind, reason).Inc()
}
