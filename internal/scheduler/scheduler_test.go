package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadSpec(t *testing.T) {
	t.Parallel()
	log, _ := test.NewNullLogger()
	_, err := New("every day at six", func(context.Context) error { return nil }, log)
	require.ErrorContains(t, err, "invalid cron schedule")
}

func TestNext(t *testing.T) {
	t.Parallel()
	log, _ := test.NewNullLogger()
	s, err := New("0 6 * * *", func(context.Context) error { return nil }, log)
	require.NoError(t, err)

	from := time.Date(2025, 6, 15, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 16, 6, 0, 0, 0, time.UTC), s.Next(from))
}

func TestRunTriggersUntilCanceled(t *testing.T) {
	t.Parallel()
	log, hook := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	s, err := New("@every 1s", func(context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			cancel()
			return errors.New("first run fails")
		}
		return nil
	}, log)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	var msgs []string
	for _, e := range hook.AllEntries() {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "scheduled run failed")
	assert.Equal(t, "scheduler stopped", hook.LastEntry().Message)
}
