package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Scanner periodically checks obligations against their due dates and feeds
// breaches into the engine. Obligations are processed independently so one
// failure never blocks the rest of a pass, and because RecordBreach is
// idempotent per obligation an interrupted pass can simply run again.
type Scanner struct {
	engine   *Engine
	source   ObligationSource
	interval time.Duration
	logger   *logrus.Logger
}

// NewScanner builds a scanner polling source every interval.
func NewScanner(engine *Engine, source ObligationSource, interval time.Duration, logger *logrus.Logger) *Scanner {
	return &Scanner{engine: engine, source: source, interval: interval, logger: logger}
}

// Start runs the scan loop until ctx is cancelled.
func (s *Scanner) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infof("Breach scanner started (interval %s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Breach scanner stopped")
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs a single pass and returns how many obligations were processed.
func (s *Scanner) Scan(ctx context.Context) int {
	now := s.engine.Now()
	overdue, err := s.source.ListOverdue(ctx, now)
	if err != nil {
		s.logger.Errorf("List overdue obligations failed: %v", err)
		return 0
	}

	processed := 0
	for _, ob := range overdue {
		if ctx.Err() != nil {
			return processed
		}
		if _, err := s.engine.RecordBreach(ctx, ob); err != nil {
			// Next pass re-reads fresh state, so a lost version race here
			// heals itself.
			s.logger.Errorf("Record breach for obligation %s failed: %v", ob.ID, err)
			continue
		}
		processed++
	}
	if processed > 0 {
		s.logger.Infof("Breach scan processed %d overdue obligations", processed)
	}
	return processed
}
