package metrics

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hierlog"

// PrometheusCollector exports a Collector snapshot as Prometheus metrics.
// Values are read at scrape time, so the hot logging path never touches
// Prometheus types.
type PrometheusCollector struct {
	source *Collector
	logger string

	messages         *prometheus.Desc
	queued           *prometheus.Desc
	flushed          *prometheus.Desc
	dropped          *prometheus.Desc
	dispatchFailures *prometheus.Desc
	rotations        *prometheus.Desc
	backupsRemoved   *prometheus.Desc
	bytesWritten     *prometheus.Desc
	remoteSent       *prometheus.Desc
	remoteFailures   *prometheus.Desc
	remoteMaxLatency *prometheus.Desc
}

// NewPrometheusCollector wraps source. The logger name is attached to every
// series as a constant label.
func NewPrometheusCollector(source *Collector, logger string) *PrometheusCollector {
	labels := prometheus.Labels{"logger": logger}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, variable, labels)
	}

	return &PrometheusCollector{
		source:           source,
		logger:           logger,
		messages:         desc("messages_logged_total", "Log calls processed, by level.", "level"),
		queued:           desc("startup_queued_total", "Entries added to the startup queue."),
		flushed:          desc("startup_flushed_total", "Entries delivered from the startup queue."),
		dropped:          desc("startup_dropped_total", "Entries dropped because the startup queue was full."),
		dispatchFailures: desc("sink_dispatch_failures_total", "Failed sink dispatches."),
		rotations:        desc("file_rotations_total", "Completed file rotations."),
		backupsRemoved:   desc("file_backups_removed_total", "Rotated files deleted by retention."),
		bytesWritten:     desc("file_bytes_written_total", "Bytes written to file sinks."),
		remoteSent:       desc("remote_sent_total", "Successful remote deliveries."),
		remoteFailures:   desc("remote_failures_total", "Failed remote deliveries, by category.", "category"),
		remoteMaxLatency: desc("remote_max_latency_seconds", "Slowest successful remote delivery."),
	}
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.messages
	ch <- p.queued
	ch <- p.flushed
	ch <- p.dropped
	ch <- p.dispatchFailures
	ch <- p.rotations
	ch <- p.backupsRemoved
	ch <- p.bytesWritten
	ch <- p.remoteSent
	ch <- p.remoteFailures
	ch <- p.remoteMaxLatency
}

// Collect implements prometheus.Collector.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	m := p.source.GetMetrics()

	for level, count := range m.MessagesLogged {
		ch <- prometheus.MustNewConstMetric(p.messages, prometheus.CounterValue, float64(count), level)
	}
	for category, count := range m.RemoteFailures {
		ch <- prometheus.MustNewConstMetric(p.remoteFailures, prometheus.CounterValue, float64(count), category)
	}

	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(p.queued, m.Queued)
	counter(p.flushed, m.Flushed)
	counter(p.dropped, m.Dropped)
	counter(p.dispatchFailures, m.DispatchFailures)
	counter(p.rotations, m.RotationCount)
	counter(p.backupsRemoved, m.BackupsRemoved)
	counter(p.bytesWritten, m.BytesWritten)
	counter(p.remoteSent, m.RemoteSent)

	ch <- prometheus.MustNewConstMetric(p.remoteMaxLatency, prometheus.GaugeValue, m.MaxRemoteLatency.Seconds())
}

// NewRegistry returns a registry holding the collector for source.
func NewRegistry(source *Collector, logger string) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewPrometheusCollector(source, logger)); err != nil {
		return nil, err
	}
	return registry, nil
}

// Handler returns the /metrics handler for registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
