package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	writeConfig(t, path, "[history]\nmax_entries = 10\n")

	changes := make(chan Config, 4)
	w, err := NewWatcher(path, func(cfg Config) { changes <- cfg }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, path, "[history]\nmax_entries = 42\n")

	select {
	case cfg := <-changes:
		assert.Equal(t, 42, cfg.History.MaxEntries)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	assert.GreaterOrEqual(t, w.Reloads(), 1)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.toml")
	writeConfig(t, path, "")

	changes := make(chan Config, 1)
	w, err := NewWatcher(path, func(cfg Config) { changes <- cfg }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, filepath.Join(dir, "other.toml"), "[log]\nlevel = \"debug\"\n")

	select {
	case <-changes:
		t.Fatal("unexpected reload for a sibling file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherReportsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	errs := make(chan error, 4)
	w, err := NewWatcher(path,
		func(Config) {},
		WithErrorHandler(func(err error) { errs <- err }),
	)
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, path, "log: [broken")
	err = w.Reload()

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	select {
	case reported := <-errs:
		assert.ErrorAs(t, reported, &pe)
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
}

func TestWatcherReloadDirect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	writeConfig(t, path, "commands = [\"code\"]\n")

	var got Config
	w, err := NewWatcher(path, func(cfg Config) { got = cfg }, WithDebounce(time.Hour))
	require.NoError(t, err)

	require.NoError(t, w.Reload())
	assert.Equal(t, []string{"code"}, got.Commands)
	assert.Equal(t, 1, w.Reloads())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Reload(), ErrWatcherClosed)
}

func TestNewWatcherErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewWatcher(filepath.Join(dir, "folio.toml"), nil)
	assert.Error(t, err)

	_, err = NewWatcher(filepath.Join(dir, "folio.ini"), func(Config) {})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewWatcher(filepath.Join(dir, "missing", "folio.toml"), func(Config) {})
	assert.Error(t, err)
}

func TestWatcherCloseWaitsForDelivery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	writeConfig(t, path, "")

	entered := make(chan struct{})
	release := make(chan struct{})
	var delivered atomic.Int32
	w, err := NewWatcher(path, func(Config) {
		close(entered)
		<-release
		delivered.Add(1)
	}, WithDebounce(time.Hour))
	require.NoError(t, err)

	reloaded := make(chan error, 1)
	go func() { reloaded <- w.Reload() }()
	<-entered

	closed := make(chan struct{})
	go func() {
		_ = w.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while the change handler was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, int32(1), delivered.Load())
	require.NoError(t, <-reloaded)
	assert.ErrorIs(t, w.Reload(), ErrWatcherClosed)
}
