package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-backend/internal/logging"
)

type fakeSweeper struct {
	cutoff time.Time
	err    error
}

func (f *fakeSweeper) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestCleanup_UsesMaxAge(t *testing.T) {
	var logs bytes.Buffer
	s := New(logging.NewWithWriter(&logs, "info"))
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	f := &fakeSweeper{}
	s.cleanup(f, 30*24*time.Hour)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.cutoff)
	assert.Contains(t, logs.String(), `"deleted":3`)

	s.cleanup(&fakeSweeper{err: errors.New("db gone")}, time.Hour)
	assert.Contains(t, logs.String(), "notification cleanup failed")
}

func TestAddNotificationCleanup_ValidatesSpec(t *testing.T) {
	s := New(logging.NewWithWriter(&bytes.Buffer{}, "info"))
	require.NoError(t, s.AddNotificationCleanup("0 0 0 * * *", &fakeSweeper{}, time.Hour))
	assert.Error(t, s.AddNotificationCleanup("every day", &fakeSweeper{}, time.Hour))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
