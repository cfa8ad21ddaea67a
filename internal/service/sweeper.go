package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically drops idle scope sessions and purges expired
// idempotency entries.
type Sweeper struct {
	sessions    sessionEvicter
	idempotency idempotencyCleaner
	logger      *slog.Logger
	interval    time.Duration
	idleTTL     time.Duration
}

// NewSweeper accepts a nil cleaner when there is no database.
func NewSweeper(sessions sessionEvicter, idempotency idempotencyCleaner, logger *slog.Logger, interval, idleTTL time.Duration) *Sweeper {
	return &Sweeper{
		sessions:    sessions,
		idempotency: idempotency,
		logger:      logger,
		interval:    interval,
		idleTTL:     idleTTL,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "interval", s.interval, "idle_ttl", s.idleTTL)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if n := s.sessions.EvictIdle(s.idleTTL); n > 0 {
		s.logger.Info("evicted idle sessions", "count", n)
	}

	if s.idempotency == nil {
		return
	}
	n, err := s.idempotency.CleanExpired(ctx)
	if err != nil {
		s.logger.Error("failed to clean expired idempotency entries", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("cleaned expired idempotency entries", "count", n)
	}
}
