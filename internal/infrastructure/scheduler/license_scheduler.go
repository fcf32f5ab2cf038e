// Package scheduler runs background jobs of the server process.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	applicensing "github.com/notaris/backend/internal/application/licensing"
	"go.uber.org/zap"
)

// LicenseVerifier re-checks every stored license.
type LicenseVerifier interface {
	VerifyAll(ctx context.Context) (*applicensing.VerifyAllResult, error)
}

// LicenseSchedulerConfig holds configuration for the license verification scheduler
type LicenseSchedulerConfig struct {
	// Interval between two verification runs
	Interval time.Duration

	// InitialDelay postpones the first run after Start
	InitialDelay time.Duration

	// RunTimeout is the maximum time for one run
	RunTimeout time.Duration
}

// DefaultLicenseSchedulerConfig returns default configuration
func DefaultLicenseSchedulerConfig() LicenseSchedulerConfig {
	return LicenseSchedulerConfig{
		Interval:     12 * time.Hour,
		InitialDelay: time.Minute,
		RunTimeout:   10 * time.Minute,
	}
}

// LicenseScheduler periodically verifies the licenses of all offices, so a
// revoked or expired license takes effect without a user visiting the
// license page.
type LicenseScheduler struct {
	verifier  LicenseVerifier
	logger    *zap.Logger
	config    LicenseSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewLicenseScheduler creates a new license verification scheduler
func NewLicenseScheduler(verifier LicenseVerifier, logger *zap.Logger, config LicenseSchedulerConfig) (*LicenseScheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultLicenseSchedulerConfig().RunTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LicenseScheduler{
		verifier: verifier,
		logger:   logger,
		config:   config,
	}, nil
}

// Start starts the verification loop
func (s *LicenseScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("License scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("initial_delay", s.config.InitialDelay),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *LicenseScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("License scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("License scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *LicenseScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	delay := s.config.InitialDelay
	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("License verification loop stopping")
			return
		case <-timer.C:
			s.execute(ctx)
		}
		delay = s.config.Interval
	}
}

func (s *LicenseScheduler) execute(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.verifier.VerifyAll(runCtx)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("License verification run failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("License verification run completed",
		zap.Duration("duration", duration),
		zap.Int("total", result.Total),
		zap.Int("verified", result.Verified),
		zap.Int("in_grace", result.InGrace),
		zap.Int("failed", result.Failed),
	)
}

// TriggerNow runs a verification immediately, next to the regular schedule.
func (s *LicenseScheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *LicenseScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
