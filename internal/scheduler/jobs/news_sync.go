package jobs

import (
	"context"
	"fmt"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/internal/external/ffcal"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// NewsSyncJob refreshes the economic calendar events backing the
// news filter
type NewsSyncJob struct {
	calendar *ffcal.Client
	news     contracts.NewsStore
	logger   *logger.Logger
}

// NewNewsSyncJob creates a news sync job
func NewNewsSyncJob(calendar *ffcal.Client, news contracts.NewsStore, log *logger.Logger) *NewsSyncJob {
	return &NewsSyncJob{
		calendar: calendar,
		news:     news,
		logger:   log,
	}
}

// Name returns the job name
func (j *NewsSyncJob) Name() string {
	return "news_sync"
}

// Schedule runs hourly; calendars revise impact levels during the week
func (j *NewsSyncJob) Schedule() string {
	return "0 0 * * * *"
}

// Run fetches the current week's events and upserts them
func (j *NewsSyncJob) Run(ctx context.Context) error {
	events, err := j.calendar.FetchWeek(ctx)
	if err != nil {
		return fmt.Errorf("fetch calendar: %w", err)
	}

	count, err := j.news.Upsert(ctx, events)
	if err != nil {
		return fmt.Errorf("store calendar events: %w", err)
	}

	j.logger.WithField("events", count).Info("Calendar events synced")
	return nil
}
