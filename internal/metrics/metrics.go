// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	NumbersIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddt_numbers_issued_total",
			Help: "Document numbers assigned to stored transport records",
		},
		[]string{"format"},
	)

	NumberConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ddt_number_conflicts_total",
			Help: "Inserts rejected by the unique document number, retried with a fresh number",
		},
	)

	PDFRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddt_pdf_renders_total",
			Help: "Transport document renders",
		},
		[]string{"status"},
	)

	PDFRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ddt_pdf_render_duration_seconds",
			Help:    "Time spent producing one transport document",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ArchiveUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddt_archive_uploads_total",
			Help: "Rendered documents copied to the archive bucket",
		},
		[]string{"status"},
	)
)

// RecordRender records one render outcome and its duration.
func RecordRender(err error, d time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	PDFRenders.WithLabelValues(status).Inc()
	PDFRenderDuration.Observe(d.Seconds())
}

func RecordArchive(err error) {
	if err != nil {
		ArchiveUploads.WithLabelValues(StatusError).Inc()
		return
	}
	ArchiveUploads.WithLabelValues(StatusOK).Inc()
}
