package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"career_coach_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, level string) {
	t.Helper()
	content := "database:\n  driver: sqlite\nllm:\n  provider: mock\nlog:\n  level: " + level + "\n" +
		"storage:\n  local_path: " + filepath.Join(filepath.Dir(path), "uploads") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg *config.Config) { reloaded <- cfg })
	}()

	// 等待 watcher 就绪
	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, "debug")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchConfig_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	go WatchConfig(ctx, path, func(cfg *config.Config) { reloaded <- cfg })

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload")
	case <-time.After(1500 * time.Millisecond):
	}
}
