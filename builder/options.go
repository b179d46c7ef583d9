package builder

import (
	"time"

	"github.com/hupe1980/cocogo"
)

type options struct {
	now     func() time.Time
	logger  *cocogo.Logger
	metrics cocogo.MetricsCollector
	version string
}

func defaultOptions() options {
	return options{
		now:     time.Now,
		logger:  cocogo.NoopLogger(),
		metrics: cocogo.NoopMetricsCollector{},
		version: DefaultVersion,
	}
}

// Option configures a Builder.
type Option func(*options)

// WithNow sets the clock used for the creation date of built datasets.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *cocogo.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = cocogo.NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m cocogo.MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = cocogo.NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithVersion overrides the version recorded in the dataset info.
func WithVersion(version string) Option {
	return func(o *options) {
		if version != "" {
			o.version = version
		}
	}
}
