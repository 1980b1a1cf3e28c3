package services

import (
	"context"
	"fmt"
	"time"

	"helpcrunch-live-chat/internal/logger"

	"github.com/go-co-op/gocron"
)

const CacheWarmTag = "settings-cache-warm"

// Warmer refreshes a cached value from its source of truth.
type Warmer interface {
	Warm(ctx context.Context) error
}

// CronService runs the background jobs of the server process.
type CronService struct {
	scheduler *gocron.Scheduler
	timeout   time.Duration
}

func NewCronService() *CronService {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &CronService{scheduler: s, timeout: 30 * time.Second}
}

// ScheduleCacheWarm re-reads the settings record every interval so page views
// rarely hit the database. The first run happens immediately.
func (c *CronService) ScheduleCacheWarm(interval time.Duration, w Warmer) error {
	if interval <= 0 {
		return fmt.Errorf("cache warm interval must be positive, got %s", interval)
	}
	_, err := c.scheduler.Every(interval).Tag(CacheWarmTag).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := w.Warm(ctx); err != nil {
			logger.Warn("settings cache warm failed", "error", err)
			return
		}
		logger.Debug("settings cache warmed")
	})
	return err
}

func (c *CronService) Start() {
	logger.Info("starting cron service", "jobs", len(c.scheduler.Jobs()))
	c.scheduler.StartAsync()
}

func (c *CronService) Stop() {
	c.scheduler.Stop()
	logger.Info("cron service stopped")
}

func (c *CronService) Jobs() []*gocron.Job {
	return c.scheduler.Jobs()
}
