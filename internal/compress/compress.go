// Package compress wraps dataset streams in zstd or lz4 compression,
// selected by a trailing file extension.
package compress

import (
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used for a stream.
type Type uint8

const (
	// None indicates no compression.
	None Type = iota
	// LZ4 indicates LZ4 frame compression (fast).
	LZ4
	// ZSTD indicates ZSTD compression (better ratio).
	ZSTD
)

// String returns the file extension of the compression type without the dot.
func (t Type) String() string {
	switch t {
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zst"
	default:
		return "none"
	}
}

// FromName inspects the trailing extension of name and returns the
// compression type together with the name stripped of that extension.
func FromName(name string) (Type, string) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zst"):
		return ZSTD, name[:len(name)-len(".zst")]
	case strings.HasSuffix(lower, ".lz4"):
		return LZ4, name[:len(name)-len(".lz4")]
	default:
		return None, name
	}
}

// NewWriter wraps w. Closing the returned writer flushes the compressed
// stream but does not close w.
func NewWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case ZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// NewReader wraps r. Closing the returned reader releases decoder resources
// but does not close r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case ZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
