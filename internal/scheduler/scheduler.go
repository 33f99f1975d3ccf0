package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/geraldbaeck/luftguete/internal/pipeline"
)

type Scheduler struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger
	cron     *cron.Cron
	spec     string
	timeout  time.Duration
}

func NewScheduler(ctx context.Context, p *pipeline.Pipeline, logger *logrus.Logger, spec string, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		ctx:      ctx,
		pipeline: p,
		logger:   logger,
		cron:     cron.New(),
		spec:     spec,
		timeout:  timeout,
	}
}

// Start the scheduler
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.ingest)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// ingest runs one ingestion cycle against the feed
func (s *Scheduler) ingest() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if _, err := s.pipeline.Run(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled ingestion failed")
	}
}

// Stop the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
