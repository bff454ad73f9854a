package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/pkg/jobs"
)

type expiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type prebuildTargets interface {
	DistinctProductIDs(ctx context.Context) ([]int64, error)
}

// MaintenanceConfig tunes the background loops.
type MaintenanceConfig struct {
	SweepInterval    time.Duration
	SweepWorkers     int
	PrebuildDays     int
	PrebuildInterval time.Duration
}

// MaintenanceService runs the periodic loops: the pending-booking sweeper and
// the optional cache prebuild that keeps the near-term calendar warm.
type MaintenanceService struct {
	sweeper  expiredSweeper
	targets  prebuildTargets
	resolver dayResolver
	logger   *zap.Logger
	cfg      MaintenanceConfig

	sweepQueue    *jobs.Queue
	prebuildQueue *jobs.Queue
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewMaintenanceService constructs MaintenanceService.
func NewMaintenanceService(sweeper expiredSweeper, targets prebuildTargets, resolver dayResolver, cfg MaintenanceConfig, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.SweepWorkers <= 0 {
		cfg.SweepWorkers = 1
	}
	if cfg.PrebuildInterval <= 0 {
		cfg.PrebuildInterval = time.Hour
	}

	s := &MaintenanceService{
		sweeper:  sweeper,
		targets:  targets,
		resolver: resolver,
		logger:   logger,
		cfg:      cfg,
		done:     make(chan struct{}),
	}
	s.sweepQueue = jobs.NewQueue("booking-sweeper", s.handleSweep, jobs.QueueConfig{
		Workers: cfg.SweepWorkers,
		Logger:  logger,
	})
	s.prebuildQueue = jobs.NewQueue("availability-prebuild", s.handlePrebuild, jobs.QueueConfig{
		Workers: 1,
		Logger:  logger,
	})
	return s
}

// Start launches the queues and the tickers feeding them.
func (s *MaintenanceService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.sweepQueue.Start(ctx)
	if s.prebuildEnabled() {
		s.prebuildQueue.Start(ctx)
	}

	go func() {
		defer close(s.done)
		sweepTicker := time.NewTicker(s.cfg.SweepInterval)
		defer sweepTicker.Stop()
		prebuildTicker := time.NewTicker(s.cfg.PrebuildInterval)
		defer prebuildTicker.Stop()

		if s.prebuildEnabled() {
			s.enqueue(s.prebuildQueue, "prebuild")
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-sweepTicker.C:
				s.enqueue(s.sweepQueue, "sweep")
			case <-prebuildTicker.C:
				if s.prebuildEnabled() {
					s.enqueue(s.prebuildQueue, "prebuild")
				}
			}
		}
	}()
}

// Stop halts the tickers and drains the workers.
func (s *MaintenanceService) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.sweepQueue.Stop()
	if s.prebuildEnabled() {
		s.prebuildQueue.Stop()
	}
}

func (s *MaintenanceService) prebuildEnabled() bool {
	return s.cfg.PrebuildDays > 0 && s.targets != nil && s.resolver != nil
}

func (s *MaintenanceService) enqueue(queue *jobs.Queue, jobType string) {
	err := queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType})
	if err != nil {
		s.logger.Warn("enqueue maintenance job", zap.String("type", jobType), zap.Error(err))
	}
}

func (s *MaintenanceService) handleSweep(ctx context.Context, _ jobs.Job) error {
	swept, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired bookings: %w", err)
	}
	if swept > 0 {
		s.logger.Info("maintenance sweep finished", zap.Int("swept", swept))
	}
	return nil
}

// handlePrebuild warms the cache for every scheduled product over the coming
// days. Failures on one product do not stop the rest.
func (s *MaintenanceService) handlePrebuild(ctx context.Context, _ jobs.Job) error {
	productIDs, err := s.targets.DistinctProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("list prebuild products: %w", err)
	}
	start := time.Now()
	var failures int
	for _, productID := range productIDs {
		for offset := 0; offset < s.cfg.PrebuildDays; offset++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			date := start.AddDate(0, 0, offset)
			if _, _, err := s.resolver.GetOrCompute(ctx, productID, date); err != nil {
				failures++
				s.logger.Warn("prebuild resolve failed",
					zap.Int64("product_id", productID),
					zap.String("date", date.Format("2006-01-02")),
					zap.Error(err))
			}
		}
	}
	s.logger.Info("availability prebuild finished",
		zap.Int("products", len(productIDs)),
		zap.Int("days", s.cfg.PrebuildDays),
		zap.Int("failures", failures),
		zap.Duration("took", time.Since(start)))
	return nil
}
