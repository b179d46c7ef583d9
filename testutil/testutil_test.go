package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomDataset(t *testing.T) {
	rng := NewRNG(4711)

	ds := RandomDataset(t, rng, DatasetConfig{Images: 10, Categories: 3, Annotations: 25, WithOptional: true})

	stats := ds.Stats()
	assert.Equal(t, 10, stats.Images)
	assert.Equal(t, 3, stats.Categories)
	assert.Equal(t, 25, stats.Annotations)
	require.NoError(t, ds.CheckReferences())

	for _, ann := range ds.Annotations() {
		require.NotNil(t, ann.BBox)
		require.NotNil(t, ann.Area)
		assert.Equal(t, ann.BBox[2]*ann.BBox[3], *ann.Area)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	d1 := RandomDataset(t, rng, DatasetConfig{Images: 5, Categories: 2, Annotations: 10})

	rng.Reset()
	d2 := RandomDataset(t, rng, DatasetConfig{Images: 5, Categories: 2, Annotations: 10})

	assert.True(t, d1.Equal(d2))
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestFixture(t *testing.T) {
	ds := Fixture(t)

	require.NoError(t, ds.CheckReferences())
	assert.Len(t, ds.Images(), 3)
	assert.Len(t, ds.Annotations(), 4)
}
