package exam

import (
	"context"
	"time"
)

// RunTimer drives a timed session one second at a time until it leaves
// IN_PROGRESS, is restarted, or ctx is cancelled. It returns immediately for
// untimed sessions. A nil clock uses the system clock.
func RunTimer(ctx context.Context, s *Session, clock Clock) {
	gen, timed := s.timerState()
	if !timed {
		return
	}
	if clock == nil {
		clock = SystemClock{}
	}

	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !s.tick(ctx, gen) {
				return
			}
		}
	}
}
