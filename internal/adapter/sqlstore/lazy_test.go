package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
)

func TestLazy_ConnectsOnceDatabaseAppears(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "later")
	path := filepath.Join(dir, "quakes.db")
	l := NewLazy("sqlite", path, Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	_, err := l.Version(ctx)
	require.Error(t, err, "directory does not exist yet")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	s, err := Open(ctx, "sqlite", path, Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, fixture()))
	require.NoError(t, s.Close())

	v, err := l.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rows=5 updated=50", v)

	events, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 5)

	q, ok := catalog.Lookup(16)
	require.True(t, ok)
	got, err := l.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(2)}}, got.Rows)
}

func TestLazy_CloseWithoutConnection(t *testing.T) {
	l := NewLazy("sqlite", filepath.Join(t.TempDir(), "missing", "quakes.db"), Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, l.Close())
}
