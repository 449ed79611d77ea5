package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokuthong/ShelfLife-DAM/internal/config"
)

type sessionFunc func(context.Context) error

func (f sessionFunc) FetchCurrentUser(ctx context.Context) error { return f(ctx) }

type invalidations struct {
	resources chan string
}

func (i *invalidations) Invalidate(resource string) {
	select {
	case i.resources <- resource:
	default:
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	var checks atomic.Int32
	inv := &invalidations{resources: make(chan string, 8)}

	s := NewScheduler(config.JobsConfig{
		SessionSchedule:  "* * * * * *",
		ActivitySchedule: "* * * * * *",
	}, sessionFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		checks.Add(1)
		return nil
	}), inv, "recentActivity", zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop(time.Second)

	select {
	case r := <-inv.resources:
		assert.Equal(t, "recentActivity", r)
	case <-time.After(3 * time.Second):
		t.Fatal("activity job did not run")
	}
	assert.Eventually(t, func() bool { return checks.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(config.JobsConfig{SessionSchedule: "every minute"},
		sessionFunc(func(context.Context) error { return nil }), nil, "", zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestScheduler_NothingToRun(t *testing.T) {
	s := NewScheduler(config.JobsConfig{SessionSchedule: "* * * * * *"}, nil, nil, "", zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop(time.Second)
}
