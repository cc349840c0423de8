package notification

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
)

// CleanupJob handles notification retention cleanup
type CleanupJob struct {
	repo          Repository
	clock         clock.Clock
	retentionDays int
}

// NewCleanupJob creates a cleanup job
func NewCleanupJob(repo Repository, c clock.Clock, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if c == nil {
		c = clock.System{}
	}
	return &CleanupJob{repo: repo, clock: c, retentionDays: retentionDays}
}

// RunOnce deletes read notifications past the retention period.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.clock.Now().AddDate(0, 0, -j.retentionDays)

	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old notifications")
		return 0, err
	}

	if deleted > 0 {
		log.Info().
			Int64("deleted", deleted).
			Int("retention_days", j.retentionDays).
			Msg("Cleaned up old notifications")
	}
	return deleted, nil
}
