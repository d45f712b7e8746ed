package artifact

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func TestNames(t *testing.T) {
	a, b := NewName(), NewName()
	assert.NotEqual(t, a, b)
	assert.True(t, ValidName(a), a)
	assert.True(t, strings.HasPrefix(a, "plot_"))
	assert.Len(t, a, len("plot_")+32+len(".png"))

	for _, bad := range []string{"", "plot_.png", "../etc/passwd", "plot_ABCDEF0123456789abcdef0123456789.png", a + ".bak"} {
		assert.False(t, ValidName(bad), bad)
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "plots"))
	require.NoError(t, err)

	t.Run("put and open", func(t *testing.T) {
		name := NewName()
		require.NoError(t, store.Put(ctx, name, bytes.NewReader(pngBytes), int64(len(pngBytes))))

		rc, err := store.Open(ctx, name)
		require.NoError(t, err)
		defer rc.Close()
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, got)
	})

	t.Run("short write is rejected", func(t *testing.T) {
		name := NewName()
		err := store.Put(ctx, name, bytes.NewReader(pngBytes), 100)
		require.Error(t, err)

		_, err = store.Open(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid names", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, "../x.png", bytes.NewReader(pngBytes), -1))
		_, err := store.Open(ctx, "../x.png")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Open(ctx, NewName())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocalStoreSweep(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	old, fresh := NewName(), NewName()
	require.NoError(t, store.Put(ctx, old, bytes.NewReader(pngBytes), -1))
	require.NoError(t, store.Put(ctx, fresh, bytes.NewReader(pngBytes), -1))
	// Unrelated files are never touched
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "keep.txt"), []byte("x"), 0o644))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), old), past, past))

	n, err := store.Sweep(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Open(ctx, old)
	assert.ErrorIs(t, err, ErrNotFound)
	rc, err := store.Open(ctx, fresh)
	require.NoError(t, err)
	rc.Close()
	assert.FileExists(t, filepath.Join(store.Dir(), "keep.txt"))
}

func TestJanitor(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	name := NewName()
	require.NoError(t, store.Put(ctx, name, bytes.NewReader(pngBytes), -1))

	j := NewJanitor(store, time.Hour, time.Minute, zap.NewNop())
	var evicted int
	j.OnEvict = func(n int) { evicted += n }

	n, err := j.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, evicted)

	j.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = j.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, evicted)
}

func TestJanitorRunStops(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewJanitor(store, time.Hour, time.Millisecond, zap.NewNop()).Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestMinIOStore(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	ctx := context.Background()
	store, err := NewMinIOStore(ctx, MinIOConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "eqsolve-test",
	})
	require.NoError(t, err)

	name := NewName()
	require.NoError(t, store.Put(ctx, name, bytes.NewReader(pngBytes), int64(len(pngBytes))))

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	_, err = store.Open(ctx, NewName())
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.Sweep(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}
