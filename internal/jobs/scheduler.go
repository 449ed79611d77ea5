package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/config"
)

const jobTimeout = 30 * time.Second

// SessionChecker revalidates the signed-in user against the server.
type SessionChecker interface {
	FetchCurrentUser(ctx context.Context) error
}

// Invalidator marks cached queries of a resource stale.
type Invalidator interface {
	Invalidate(resource string)
}

type Scheduler struct {
	cron     *cron.Cron
	session  SessionChecker
	cache    Invalidator
	resource string
	cfg      config.JobsConfig
	log      zerolog.Logger
}

// NewScheduler polls resource in cache on the activity schedule and checks
// the session on the session schedule. Either dependency may be nil.
func NewScheduler(cfg config.JobsConfig, session SessionChecker, cache Invalidator, resource string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		session:  session,
		cache:    cache,
		resource: resource,
		cfg:      cfg,
		log:      log.With().Str("component", "jobs").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if s.session != nil && s.cfg.SessionSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionSchedule, s.checkSession); err != nil {
			return err
		}
	}
	if s.cache != nil && s.cfg.ActivitySchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.ActivitySchedule, s.pollActivity); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits up to timeout for a running job.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) checkSession() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := s.session.FetchCurrentUser(ctx)
	switch {
	case err == nil:
		s.log.Debug().Msg("session still valid")
	case errors.Is(err, apiclient.ErrNetwork):
		s.log.Warn().Err(err).Msg("session check skipped, server unreachable")
	default:
		s.log.Error().Err(err).Msg("session check failed")
	}
}

func (s *Scheduler) pollActivity() {
	s.cache.Invalidate(s.resource)
	s.log.Debug().Str("resource", s.resource).Msg("activity invalidated")
}
