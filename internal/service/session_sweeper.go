package service

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// StartSessionSweeper runs a background loop that deletes expired sign-in
// sessions every interval. It blocks until the context is cancelled, so it
// should be launched in a separate goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Session sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			s.sweepSessions(ctx)
		}
	}
}

func (s *Service) sweepSessions(ctx context.Context) {
	n, err := s.Auth.SweepExpired(ctx)
	if err != nil {
		s.logger.Errorf("Failed to sweep sessions: %v", err)
		return
	}
	if n > 0 {
		s.logger.Infof("Removed %d expired sessions", n)
	}
}
