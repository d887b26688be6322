package util

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupJob is one task of the daily maintenance run.
type CleanupJob struct {
	Name string
	Run  func() (int64, error)
}

// nextDailyRun returns the next occurrence of hour:00 strictly after now.
func nextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDailyCleanup runs jobs every day at hour:00 until ctx is cancelled.
// The returned channel is closed once the loop has exited.
func StartDailyCleanup(ctx context.Context, hour int, jobs ...CleanupJob) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			next := nextDailyRun(time.Now(), hour)
			log.Info().Time("next_run", next).Msg("daily cleanup scheduled")

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			RunCleanup(jobs...)
		}
	}()

	return done
}

// RunCleanup executes every job once and logs its outcome.
func RunCleanup(jobs ...CleanupJob) {
	for _, job := range jobs {
		n, err := job.Run()
		if err != nil {
			log.Error().Err(err).Str("job", job.Name).Msg("cleanup failed")
			continue
		}
		log.Info().Str("job", job.Name).Int64("deleted", n).Msg("cleanup completed")
	}
}
