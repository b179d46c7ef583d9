package cocogo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the metric package).
type MetricsCollector interface {
	// RecordRow is called after each source row is resolved.
	// locations is the number of storage locations the row expanded to.
	RecordRow(locations int, err error)

	// RecordBuild is called once per build with the size of the result.
	RecordBuild(duration time.Duration, images, annotations int, err error)

	// RecordDownload is called after each image transfer.
	RecordDownload(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRow(int, error)                        {}
func (NoopMetricsCollector) RecordBuild(time.Duration, int, int, error)  {}
func (NoopMetricsCollector) RecordDownload(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RowCount           atomic.Int64
	RowErrors          atomic.Int64
	LocationCount      atomic.Int64
	BuildCount         atomic.Int64
	BuildErrors        atomic.Int64
	BuildTotalNanos    atomic.Int64
	DownloadCount      atomic.Int64
	DownloadErrors     atomic.Int64
	DownloadBytes      atomic.Int64
	DownloadTotalNanos atomic.Int64
}

// RecordRow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRow(locations int, err error) {
	b.RowCount.Add(1)
	b.LocationCount.Add(int64(locations))
	if err != nil {
		b.RowErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, _, _ int, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordDownload implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDownload(bytes int64, duration time.Duration, err error) {
	b.DownloadCount.Add(1)
	b.DownloadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DownloadErrors.Add(1)
		return
	}
	b.DownloadBytes.Add(bytes)
}

// BasicStats is a point-in-time snapshot of BasicMetricsCollector.
type BasicStats struct {
	Rows            int64
	RowErrors       int64
	Locations       int64
	Builds          int64
	BuildErrors     int64
	AvgBuildTime    time.Duration
	Downloads       int64
	DownloadErrors  int64
	DownloadedBytes int64
}

// Stats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) Stats() BasicStats {
	s := BasicStats{
		Rows:            b.RowCount.Load(),
		RowErrors:       b.RowErrors.Load(),
		Locations:       b.LocationCount.Load(),
		Builds:          b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		Downloads:       b.DownloadCount.Load(),
		DownloadErrors:  b.DownloadErrors.Load(),
		DownloadedBytes: b.DownloadBytes.Load(),
	}
	if s.Builds > 0 {
		s.AvgBuildTime = time.Duration(b.BuildTotalNanos.Load() / s.Builds)
	}
	return s
}
