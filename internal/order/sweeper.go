package order

import (
	"context"
	"fmt"
	"time"
)

const sweepBatch = 100

// SweepExpired expires pending orders past their hold. It backs up the Redis
// expiry notifications, which are not delivered while the service is down.
func (s *OrderService) SweepExpired(ctx context.Context) (int, error) {
	orders, err := s.DB.ListExpiredPending(ctx, s.Clock.Now(), sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}
	expired := 0
	for _, o := range orders {
		if err := s.Expire(ctx, o.OrderID); err != nil {
			s.Logger.Error("SWEEPER", fmt.Sprintf("failed to expire %s: %v", o.OrderID, err))
			continue
		}
		expired++
	}
	if expired > 0 {
		s.Logger.Info("SWEEPER", fmt.Sprintf("expired %d pending orders", expired))
	}
	return expired, nil
}

// RunSweeper calls SweepExpired every interval until ctx is cancelled.
func (s *OrderService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.Logger.Error("SWEEPER", err.Error())
			}
		}
	}
}
