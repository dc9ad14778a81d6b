package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

const attemptKey = "scheduler:last_attempt"

// attemptLimiter enforces the 5-minute spacing between posting attempts.
// Redis is preferred so the cooldown survives a restart; when Redis is
// unreachable it degrades to an in-process timestamp (single instance only).
type attemptLimiter struct {
	useRedis bool

	mu   sync.Mutex
	last time.Time
}

// NewAttemptLimiter returns the default limiter.
func NewAttemptLimiter() AttemptLimiter {
	return &attemptLimiter{useRedis: true}
}

func (l *attemptLimiter) AllowAttempt(now time.Time) bool {
	if l.useRedis {
		if rc := utils.GetRedis(); rc != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			// SET NX with the cooldown as TTL: success means no attempt
			// inside the window, and this attempt is recorded in the same
			// step.
			ok, err := rc.SetNX(ctx, attemptKey, now.UTC().Format(time.RFC3339), attemptCooldown).Result()
			if err == nil {
				return ok
			}
			utils.Sugar.Warnf("attempt limiter redis error, falling back to memory: %v", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.last.IsZero() && now.Sub(l.last) < attemptCooldown {
		return false
	}
	l.last = now
	return true
}
