package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels for portal metrics.
type Config struct {
	ServiceName string
	Environment string
}

// DownloadMetrics tracks the file-delivery pipeline. The audit-write-failure
// counter is the side channel for swallowed access-log errors: the ledger is
// append-only and best-effort, so drops must surface somewhere visible.
type DownloadMetrics struct {
	downloadsTotal     *prometheus.CounterVec
	renderDuration     *prometheus.HistogramVec
	auditWriteFailures prometheus.Counter
}

var (
	downloadMetricsOnce sync.Once
	downloadMetrics     *DownloadMetrics
)

// Download returns the process-wide download metrics, registering them on
// first use.
func Download(cfg Config) *DownloadMetrics {
	downloadMetricsOnce.Do(func() {
		downloadMetrics = newDownloadMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return downloadMetrics
}

// ResetDownloadMetricsForTest clears the singleton between test runs.
func ResetDownloadMetricsForTest() {
	downloadMetricsOnce = sync.Once{}
	downloadMetrics = nil
}

func newDownloadMetrics(registerer prometheus.Registerer, cfg Config) *DownloadMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "forestry-pots"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	downloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "forestry_downloads_total",
			Help:        "File download attempts by requested file type and access-log result.",
			ConstLabels: constLabels,
		},
		[]string{"file_type", "result"},
	)

	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "forestry_watermark_render_seconds",
			Help:        "Watermark render latency by file kind.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		},
		[]string{"kind"},
	)

	auditWriteFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "forestry_audit_write_failures_total",
			Help:        "Access-log inserts that failed and were swallowed.",
			ConstLabels: constLabels,
		},
	)

	for _, collector := range []prometheus.Collector{downloadsTotal, renderDuration, auditWriteFailures} {
		if err := registerer.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == downloadsTotal {
						downloadsTotal = existing
					}
				case *prometheus.HistogramVec:
					renderDuration = existing
				case prometheus.Counter:
					auditWriteFailures = existing
				}
			}
		}
	}

	return &DownloadMetrics{
		downloadsTotal:     downloadsTotal,
		renderDuration:     renderDuration,
		auditWriteFailures: auditWriteFailures,
	}
}

// IncDownload records one download attempt outcome.
func (m *DownloadMetrics) IncDownload(fileType, result string) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(fileType, result).Inc()
}

// ObserveRender records a completed render duration.
func (m *DownloadMetrics) ObserveRender(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// IncAuditWriteFailure records one swallowed access-log insert error.
func (m *DownloadMetrics) IncAuditWriteFailure() {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc()
}
