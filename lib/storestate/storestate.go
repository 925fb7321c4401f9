// Package storestate persists the single piece of state that survives
// between runs: the hash of the last store snapshot that was seen.
package storestate

import (
	"errors"
	"log/slog"
	"os"
	"strings"
)

// ErrNoUpdate is a gate, not a failure: the store has not changed
// since the last run and the pipeline should stop early.
var ErrNoUpdate = errors.New("store has not updated")

// Load reads the last-seen hash marker.
func Load(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(contents)), nil
}

// Save writes the hash marker for the next run's Diff.
func Save(path, hash string) error {
	return os.WriteFile(path, []byte(hash), 0644)
}

// Diff decides whether the fetched snapshot is new.
//
// On the very first run (no marker file) the marker is written right
// away and ErrNoUpdate is returned, so a fresh deployment never
// publishes a store it has no baseline for. On every later run a
// changed hash returns nil and the marker is deliberately NOT written
// here; the caller persists it only after the publish stages finish,
// so a mid-pipeline failure reprocesses the same store next run
// instead of silently skipping it.
func Diff(path, hash string) error {
	local, err := Load(path)
	if os.IsNotExist(err) {
		err = Save(path, hash)
		if err != nil {
			return err
		}
		slog.Warn("no local store hash found, created it", "path", path)
		return ErrNoUpdate
	}
	if err != nil {
		return err
	}

	if local == hash {
		slog.Info("the store has not updated, the local hash matches the api hash")
		return ErrNoUpdate
	}
	return nil
}
