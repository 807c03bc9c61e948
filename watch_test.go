package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("nodes: [localhost]\n"), 0o644))

	w, err := newConfigWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 10)
	go w.run(ctx, func() {
		reloaded <- struct{}{}
	})

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("nodes: [localhost, 127.0.0.1]\n"), 0o644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not noticed")
	}
}

func TestConfigWatcherMissingDir(t *testing.T) {
	_, err := newConfigWatcher(filepath.Join(t.TempDir(), "missing", "config.yml"))
	require.Error(t, err)
}
