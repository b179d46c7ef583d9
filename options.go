package cocogo

import "github.com/hupe1980/cocogo/codec"

type options struct {
	logger    *Logger
	codec     codec.Codec
	keepEmpty bool
}

func defaultOptions() options {
	return options{
		logger: NoopLogger(),
	}
}

// Option configures dataset construction, loading and saving.
type Option func(*options)

// WithLogger configures the logger used by dataset transformations.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithCodec overrides the codec otherwise selected from the file extension.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithKeepEmpty writes absent optional fields as explicit nulls when saving.
// By default they are omitted.
func WithKeepEmpty(keep bool) Option {
	return func(o *options) {
		o.keepEmpty = keep
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
