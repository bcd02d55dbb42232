package master

import (
	"context"
	"fmt"
	"time"

	"go-erp/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RecountScheduler runs the record-count reconciliation on a cron schedule.
type RecountScheduler struct {
	service   MasterService
	logger    *zap.Logger
	schedule  string
	scheduler *cron.Cron
}

func NewRecountScheduler(service MasterService, cfg *config.Config, logger *zap.Logger) *RecountScheduler {
	return &RecountScheduler{
		service:  service,
		logger:   logger,
		schedule: cfg.RecountSchedule,
	}
}

func (s *RecountScheduler) Start() error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid recount schedule: %w", err)
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.service.Recount(ctx); err != nil {
			s.logger.Error("record count reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

func (s *RecountScheduler) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}
