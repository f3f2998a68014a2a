package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	l, err := New(db)
	require.NoError(t, err)
	return l
}

func TestRecordAndGet(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	r, err := l.Record(ctx, Run{
		Job:      "disc",
		Output:   "disc.gcode",
		Layers:   25,
		Commands: 5000,
		Feed:     123.456,
		Checksum: 0xfedcba9876543210,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.Created.IsZero())

	got, err := l.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestGetMissing(t *testing.T) {
	l := newLedger(t)
	_, err := l.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateID(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	_, err := l.Record(ctx, Run{ID: "a", Job: "j"})
	require.NoError(t, err)
	_, err = l.Record(ctx, Run{ID: "a", Job: "j"})
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, job := range []string{"b", "a", "b"} {
		_, err := l.Record(ctx, Run{Job: job, Created: t0.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	all, err := l.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[1].Job)

	bs, err := l.List(ctx, "b")
	require.NoError(t, err)
	require.Len(t, bs, 2)
	assert.True(t, bs[0].Created.Before(bs[1].Created))

	none, err := l.List(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, none)
}
