package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/jobs"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/query"
	"github.com/gokuthong/ShelfLife-DAM/internal/store"
)

func newWatchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow recent activity until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			if _, err := a.currentUser(ctx); err != nil {
				return err
			}

			scheduler := jobs.NewScheduler(a.cfg.Jobs, a.store, a.cache, query.ResourceRecentActivity, a.log)
			if err := scheduler.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}

			unsubscribe := a.store.Subscribe(func(s store.State) {
				if !s.Auth.IsLoading && !s.Auth.IsAuthenticated && s.Auth.Error != "" {
					a.log.Warn().Str("reason", s.Auth.Error).Msg("session ended")
				}
			})
			defer unsubscribe()

			key, fetch := a.queries.RecentActivityFetcher(limit)
			updates := a.cache.Observe(ctx, key, fetch, query.Options{StaleTime: query.ActivityStaleTime})

			seen := make(map[string]bool)
			for res := range updates {
				if res.Err != nil {
					a.log.Warn().Err(res.Err).Msg("activity refresh failed")
					continue
				}
				entries, _ := res.Data.([]models.ActivityLogEntry)
				var fresh []models.ActivityLogEntry
				for i := len(entries) - 1; i >= 0; i-- {
					if !seen[entries[i].LogID] {
						seen[entries[i].LogID] = true
						fresh = append(fresh, entries[i])
					}
				}
				if len(fresh) > 0 {
					printActivity(a.out, fresh)
				}
			}

			a.log.Info().Msg("shutdown signal received")
			scheduler.Stop(5 * time.Second)
			return ignoreCanceled(ctx.Err())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "entries to track")
	return cmd
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
