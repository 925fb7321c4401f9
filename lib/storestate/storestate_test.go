package storestate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.txt")

	err := Save(path, "a1b2c3")
	require.NoError(t, err)

	hash, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "a1b2c3", hash)
}

func TestDiffFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.txt")

	// first ever run: marker is written, no update reported
	err := Diff(path, "hash-one")
	require.ErrorIs(t, err, ErrNoUpdate)

	hash, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "hash-one", hash)
}

func TestDiffUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.txt")
	require.NoError(t, Save(path, "hash-one"))

	err := Diff(path, "hash-one")
	require.ErrorIs(t, err, ErrNoUpdate)
}

func TestDiffChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.txt")
	require.NoError(t, Save(path, "hash-one"))

	err := Diff(path, "hash-two")
	require.NoError(t, err)

	// the marker must not move until the end of the pipeline
	hash, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "hash-one", hash)
}
