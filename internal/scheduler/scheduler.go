package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/config"
)

// Warmer refreshes the cached forecast for a coordinate pair.
type Warmer interface {
	WarmForecast(ctx context.Context, lat, lon float64) (bool, error)
}

// Scheduler periodically keeps forecasts for configured locations fresh in
// the cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	locations []config.Coordinate
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler.
func New(locations []config.Coordinate, interval time.Duration, warmer Warmer, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		locations: locations,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.log.Info().Msg("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce warms every configured location concurrently and waits for all of
// them.
func (s *Scheduler) RunOnce() {
	s.log.Debug().Int("locations", len(s.locations)).Msg("scheduler: warming forecasts")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc config.Coordinate) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			fetched, err := s.warmer.WarmForecast(ctx, loc.Lat, loc.Lon)
			if err != nil {
				s.log.Warn().Err(err).Float64("lat", loc.Lat).Float64("lon", loc.Lon).Msg("scheduler: warm failed")
				return
			}
			if fetched {
				s.log.Debug().Float64("lat", loc.Lat).Float64("lon", loc.Lon).Msg("scheduler: forecast refreshed")
			}
		}(loc)
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
