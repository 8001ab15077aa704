package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

func TestRunOnceUsesRetentionWindow(t *testing.T) {
	p := &fakePruner{n: 7}
	r := NewRetention(p, 48*time.Hour)
	r.now = func() time.Time { return time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC) }

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC), p.cutoff)
}

func TestRunOnceError(t *testing.T) {
	_, err := NewRetention(&fakePruner{err: errors.New("pg down")}, time.Hour).RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStartRejectsBadSpec(t *testing.T) {
	r := NewRetention(&fakePruner{}, 0)
	assert.Error(t, r.Start("every day at three"))
	assert.Equal(t, 14*24*time.Hour, r.keep)
}

func TestStartAndStop(t *testing.T) {
	r := NewRetention(&fakePruner{}, time.Hour)
	require.NoError(t, r.Start("0 3 * * *"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
