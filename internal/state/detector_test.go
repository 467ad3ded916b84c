package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/nginxguard/internal/config"
	"github.com/Wikid82/nginxguard/internal/logger"
)

func newDetector(t *testing.T, compare config.Compare) (*Detector, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), ".nginxguard"))
	return NewDetector(store, compare, logger.Discard()), store
}

func TestDetector_NoSnapshotForcesUpdate(t *testing.T) {
	for _, compare := range []config.Compare{config.CompareSet, config.CompareOrdered} {
		d, _ := newDetector(t, compare)
		assert.True(t, d.Changed([]string{"10.0.0.0/8"}))
		assert.True(t, d.Changed(nil))
	}
}

func TestDetector_CorruptSnapshotForcesUpdate(t *testing.T) {
	d, store := newDetector(t, config.CompareSet)
	require.NoError(t, os.WriteFile(store.Path(), []byte("garbage"), 0o644))
	assert.True(t, d.Changed([]string{"10.0.0.0/8"}))
}

func TestDetector_Unchanged(t *testing.T) {
	current := []string{"10.0.0.0/8", "192.30.252.0/22", "192.30.252.0/24"}
	for _, compare := range []config.Compare{config.CompareSet, config.CompareOrdered} {
		d, store := newDetector(t, compare)
		require.NoError(t, store.Save(current))
		assert.False(t, d.Changed(current), string(compare))
	}
}

func TestDetector_Membership(t *testing.T) {
	d, store := newDetector(t, config.CompareSet)
	require.NoError(t, store.Save([]string{"a", "b"}))

	assert.True(t, d.Changed([]string{"a", "b", "c"}))
	assert.True(t, d.Changed([]string{"a"}))
	assert.True(t, d.Changed([]string{"a", "x"}))
}

func TestDetector_Reordering(t *testing.T) {
	d, store := newDetector(t, config.CompareSet)
	require.NoError(t, store.Save([]string{"a", "b"}))
	assert.False(t, d.Changed([]string{"b", "a"}))

	d, store = newDetector(t, config.CompareOrdered)
	require.NoError(t, store.Save([]string{"a", "b"}))
	assert.True(t, d.Changed([]string{"b", "a"}))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, []string{}, config.CompareSet))
	assert.True(t, Equal(nil, []string{}, config.CompareOrdered))
	assert.True(t, Equal([]string{"a", "a", "b"}, []string{"b", "a"}, config.CompareSet))
	assert.False(t, Equal([]string{"a", "a", "b"}, []string{"a", "b"}, config.CompareOrdered))
	assert.False(t, Equal([]string{"a"}, []string{"a", "b"}, config.CompareOrdered))
}
