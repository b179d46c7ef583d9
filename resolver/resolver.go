// Package resolver maps capture folders to image locations in object storage.
//
// A capture folder holds one sub-folder per camera, each containing the frames
// recorded by that camera. For every configured channel the resolver lists the
// camera folder, ignores thumbnails and picks the configured frame.
package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hupe1980/cocogo"
)

// Lister lists object keys below a prefix. Every blobstore.BlobStore satisfies it.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Channel selects one frame of one camera.
type Channel struct {
	Camera string `mapstructure:"camera" yaml:"camera"`
	Frame  int    `mapstructure:"frame" yaml:"frame"`
}

// Resolver implements builder.Resolver over a Lister.
type Resolver struct {
	store    Lister
	bucket   string
	channels []Channel
	limiter  *rate.Limiter
	logger   *cocogo.Logger
}

// Options configures a Resolver.
type Options struct {
	// RequestsPerSecond throttles listing calls. Zero disables throttling.
	RequestsPerSecond float64
	Logger            *cocogo.Logger
}

// New creates a Resolver for bucket. Channels are resolved in the given order.
func New(store Lister, bucket string, channels []Channel, optFns ...func(o *Options)) (*Resolver, error) {
	if len(channels) == 0 {
		return nil, &cocogo.ValidationError{Field: "channels", Reason: "at least one channel is required"}
	}
	for _, ch := range channels {
		if ch.Camera == "" || ch.Frame < 0 {
			return nil, &cocogo.ValidationError{
				Field:  "channels",
				Reason: fmt.Sprintf("invalid channel %+v", ch),
			}
		}
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Resolver{
		store:    store,
		bucket:   bucket,
		channels: slices.Clone(channels),
		logger:   opts.Logger,
	}
	if r.logger == nil {
		r.logger = cocogo.NoopLogger()
	}
	if opts.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return r, nil
}

// WithRequestsPerSecond throttles listing calls.
func WithRequestsPerSecond(rps float64) func(o *Options) {
	return func(o *Options) {
		o.RequestsPerSecond = rps
	}
}

// WithLogger sets the logger.
func WithLogger(l *cocogo.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// Locations returns one "<bucket>/<key>" location per channel, in channel order.
//
// It fails with a *cocogo.ResolutionError matching cocogo.ErrNoCandidates when
// a camera folder holds no frames, and cocogo.ErrFrameOutOfRange when it holds
// fewer frames than the channel's frame index requires.
func (r *Resolver) Locations(ctx context.Context, folder string) ([]string, error) {
	locations := make([]string, 0, len(r.channels))
	for _, ch := range r.channels {
		loc, err := r.resolve(ctx, folder, ch)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func (r *Resolver) resolve(ctx context.Context, folder string, ch Channel) (string, error) {
	// Joined by hand: a trailing slash keeps "cam1/" from matching "cam10/".
	prefix := folder + "/" + ch.Camera + "/"

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", prefix, err)
	}

	frames := keys[:0:0]
	for _, k := range keys {
		if !strings.Contains(k, "thumbnail") {
			frames = append(frames, k)
		}
	}
	slices.Sort(frames)

	r.logger.DebugContext(ctx, "listed frames",
		"prefix", prefix,
		"frames", len(frames),
	)

	if len(frames) == 0 {
		return "", cocogo.NewNoCandidatesError(prefix)
	}
	if ch.Frame >= len(frames) {
		return "", cocogo.NewFrameOutOfRangeError(prefix, ch.Frame, len(frames))
	}
	return r.bucket + "/" + frames[ch.Frame], nil
}
