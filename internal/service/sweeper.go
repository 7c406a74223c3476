package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OverdueSweeper runs the payment overdue sweep on a cron schedule, daily at
// midnight by default. The sweep is idempotent so overlapping or repeated
// runs are harmless.
type OverdueSweeper struct {
	payments *PaymentService
	metrics  *MetricsService
	logger   *zap.Logger
	cron     *cron.Cron
	spec     string
}

// NewOverdueSweeper constructs the sweeper with the given cron spec.
func NewOverdueSweeper(payments *PaymentService, metrics *MetricsService, logger *zap.Logger, spec string) *OverdueSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = "0 0 * * *"
	}
	return &OverdueSweeper{
		payments: payments,
		metrics:  metrics,
		logger:   logger,
		cron:     cron.New(),
		spec:     spec,
	}
}

// Start schedules the sweep and runs it once immediately to catch up after
// downtime.
func (s *OverdueSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	go s.run()
	s.logger.Info("overdue sweeper started", zap.String("schedule", s.spec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *OverdueSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("overdue sweeper stopped")
}

func (s *OverdueSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	marked, err := s.payments.SweepOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	s.metrics.RecordSweep(marked)
}
