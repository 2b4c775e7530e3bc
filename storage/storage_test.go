package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-assist-go/domain/inject"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCounters(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	n, err := db.Count(ctx, "/report")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Increment(ctx, "/report"))
	}
	require.NoError(t, db.Increment(ctx, "/help"))

	n, err = db.Count(ctx, "/report")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	total, err := db.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	list, err := db.Counters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/report", list[0].Command)

	require.NoError(t, db.ResetCounter(ctx, "/report"))
	total, err = db.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, db.ResetCounter(ctx, ""))
	total, err = db.Total(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCountersSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Increment(ctx, "/report"))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.Count(ctx, "/report")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHistory(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	require.NoError(t, db.Record(ctx, inject.Entry{Command: "/report", Text: "/report", OK: true, Verified: true, Duration: 120 * time.Millisecond}))
	require.NoError(t, db.Record(ctx, inject.Entry{Command: "Flying", Text: "stop flying", Error: "clipboard busy", Duration: 40 * time.Millisecond}))

	recent, err := db.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Flying", recent[0].Command)
	assert.False(t, recent[0].Success)
	assert.Equal(t, "clipboard busy", recent[0].Error)
	assert.Equal(t, int64(120), recent[1].DurationMs)
	assert.Empty(t, recent[1].Error)

	sum, err := db.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 1, sum.Verified)
	assert.Equal(t, 80*time.Millisecond, sum.AvgDuration)
}

func TestFileSignal(t *testing.T) {
	dir := t.TempDir()
	sig := NewFileSignal(dir, "")
	assert.Equal(t, filepath.Join(dir, SignalFile), sig.Path())

	pending, err := sig.Consume()
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, sig.Increment(context.Background(), "/report"))
	b, err := os.ReadFile(sig.Path())
	require.NoError(t, err)
	assert.Equal(t, "+1", string(b))

	pending, err = sig.Consume()
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = sig.Consume()
	require.NoError(t, err)
	assert.False(t, pending)
}
