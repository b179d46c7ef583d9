// Package metric exports cocogo operational metrics to Prometheus.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/cocogo"
)

// PrometheusCollector implements cocogo.MetricsCollector.
type PrometheusCollector struct {
	rows          *prometheus.CounterVec
	locations     prometheus.Counter
	buildLatency  *prometheus.HistogramVec
	builtEntities *prometheus.GaugeVec
	downloads     *prometheus.CounterVec
	downloadBytes prometheus.Counter
	downloadTime  prometheus.Histogram
}

var _ cocogo.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cocogo_rows_total",
			Help: "Source rows resolved by the builder",
		}, []string{"status"}),
		locations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cocogo_locations_total",
			Help: "Storage locations returned by the resolver",
		}),
		buildLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cocogo_build_duration_seconds",
			Help:    "Duration of dataset builds",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		builtEntities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cocogo_build_entities",
			Help: "Entities in the last successfully built dataset",
		}, []string{"kind"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cocogo_downloads_total",
			Help: "Image transfers",
		}, []string{"status"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cocogo_download_bytes_total",
			Help: "Bytes transferred by the downloader",
		}),
		downloadTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cocogo_download_duration_seconds",
			Help:    "Duration of single image transfers",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, col := range []prometheus.Collector{
		c.rows, c.locations, c.buildLatency, c.builtEntities,
		c.downloads, c.downloadBytes, c.downloadTime,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRow implements cocogo.MetricsCollector.
func (c *PrometheusCollector) RecordRow(locations int, err error) {
	c.rows.WithLabelValues(status(err)).Inc()
	c.locations.Add(float64(locations))
}

// RecordBuild implements cocogo.MetricsCollector.
func (c *PrometheusCollector) RecordBuild(d time.Duration, images, annotations int, err error) {
	c.buildLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.builtEntities.WithLabelValues("images").Set(float64(images))
	c.builtEntities.WithLabelValues("annotations").Set(float64(annotations))
}

// RecordDownload implements cocogo.MetricsCollector.
func (c *PrometheusCollector) RecordDownload(bytes int64, d time.Duration, err error) {
	c.downloads.WithLabelValues(status(err)).Inc()
	c.downloadTime.Observe(d.Seconds())
	if err == nil {
		c.downloadBytes.Add(float64(bytes))
	}
}
