package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cocogo"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// DatasetConfig sizes a random dataset.
type DatasetConfig struct {
	Images      int
	Categories  int
	Annotations int
	// WithOptional fills optional attributes (bbox, area, width, ...).
	WithOptional bool
}

// RandomDataset generates a dataset whose annotations only reference
// existing images and categories. Ids are dense and zero-based.
func RandomDataset(t testing.TB, rng *RNG, cfg DatasetConfig) *cocogo.Dataset {
	t.Helper()

	if cfg.Images <= 0 {
		cfg.Images = 1
	}
	if cfg.Categories <= 0 {
		cfg.Categories = 1
	}

	images := make([]cocogo.Image, cfg.Images)
	for i := range images {
		folder := fmt.Sprintf("f%d", rng.Intn(cfg.Images))
		images[i] = cocogo.Image{
			ID:       i,
			FileName: fmt.Sprintf("%s__cam__%d.jpg", folder, i),
			CocoURL:  fmt.Sprintf("bucket/%s/cam/%d.jpg", folder, i),
		}
		if cfg.WithOptional {
			w, h := 640+rng.Intn(640), 480+rng.Intn(480)
			date := fmt.Sprintf("2024-01-%02d", 1+rng.Intn(28))
			images[i].Width = &w
			images[i].Height = &h
			images[i].DateCaptured = &date
		}
	}

	categories := make([]cocogo.Category, cfg.Categories)
	for i := range categories {
		categories[i] = cocogo.Category{ID: i, Name: fmt.Sprintf("class-%d", i)}
	}

	annotations := make([]cocogo.Annotation, cfg.Annotations)
	for i := range annotations {
		annotations[i] = cocogo.Annotation{
			ID:         i,
			ImageID:    rng.Intn(cfg.Images),
			CategoryID: rng.Intn(cfg.Categories),
		}
		if cfg.WithOptional {
			bbox := cocogo.BBox{
				float64(rng.Intn(100)), float64(rng.Intn(100)),
				float64(1 + rng.Intn(50)), float64(1 + rng.Intn(50)),
			}
			area := bbox[2] * bbox[3]
			crowd := rng.Intn(2)
			annotations[i].BBox = &bbox
			annotations[i].Area = &area
			annotations[i].IsCrowd = &crowd
		}
	}

	ds, err := cocogo.New(Info("random"), images, categories, annotations, nil)
	require.NoError(t, err)
	return ds
}

// Info returns a fixed info record for tests.
func Info(name string) cocogo.Info {
	return cocogo.Info{
		Description: name,
		DateCreated: "2024-01-01",
		Version:     "1.0.0",
	}
}

// Fixture returns a small hand-written dataset:
// three images, two categories ("car", "truck") and four annotations.
// Image "b.jpg" is referenced by two annotations.
func Fixture(t testing.TB) *cocogo.Dataset {
	t.Helper()

	images := []cocogo.Image{
		{ID: 0, FileName: "a.jpg", CocoURL: "bucket/f1/cam/a.jpg"},
		{ID: 1, FileName: "b.jpg", CocoURL: "bucket/f1/cam/b.jpg"},
		{ID: 2, FileName: "c.jpg", CocoURL: "bucket/f2/cam/c.jpg"},
	}
	categories := []cocogo.Category{
		{ID: 0, Name: "car"},
		{ID: 1, Name: "truck"},
	}
	annotations := []cocogo.Annotation{
		{ID: 0, ImageID: 0, CategoryID: 0},
		{ID: 1, ImageID: 1, CategoryID: 1},
		{ID: 2, ImageID: 1, CategoryID: 0},
		{ID: 3, ImageID: 2, CategoryID: 1},
	}

	ds, err := cocogo.New(Info("fixture"), images, categories, annotations, nil)
	require.NoError(t, err)
	return ds
}
