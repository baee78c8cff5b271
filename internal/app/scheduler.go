package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ideb/interview-agenda/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CloseScheduler runs the daily agenda close. The cron entry fires once a day
// at the configured wall-clock time in the school's timezone and closes that
// timezone's current date. RunNow serves manual triggers; a mutex serializes
// cron and manual runs because the close itself is not concurrency-safe.
type CloseScheduler struct {
	closer   *service.CloserService
	location *time.Location
	spec     string
	logger   *zap.Logger

	cron  *cron.Cron
	runMu sync.Mutex
}

func NewCloseScheduler(closer *service.CloserService, hour, minute int, tz string, logger *zap.Logger) (*CloseScheduler, error) {
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load close job timezone: %w", err)
	}

	return &CloseScheduler{
		closer:   closer,
		location: location,
		spec:     fmt.Sprintf("%d %d * * *", minute, hour),
		logger:   logger,
	}, nil
}

// Start registers the daily job and starts the cron loop.
func (s *CloseScheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.location))

	_, err := s.cron.AddFunc(s.spec, func() {
		date := time.Now().In(s.location)
		if _, err := s.RunNow(ctx, date); err != nil {
			s.logger.Error("Scheduled agenda close failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("register close job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Agenda close scheduler started",
		zap.String("spec", s.spec),
		zap.String("timezone", s.location.String()),
	)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *CloseScheduler) Stop() {
	if s.cron == nil {
		return
	}
	s.logger.Info("Stopping agenda close scheduler")
	<-s.cron.Stop().Done()
}

// Location returns the timezone the job's "today" is resolved in.
func (s *CloseScheduler) Location() *time.Location {
	return s.location
}

// RunNow executes one close run for the given date, serialized against the
// cron entry.
func (s *CloseScheduler) RunNow(ctx context.Context, date time.Time) (*service.Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.logger.Info("Running agenda close", zap.String("date", date.Format("2006-01-02")))
	return s.closer.Close(ctx, date)
}
