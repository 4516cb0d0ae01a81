package signal

import (
	"sync"
	"time"
)

const sweepThreshold = 1024

// RoomRateLimiter is a sliding-window limiter keyed by client.
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	rejected map[string]int
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[string][]time.Time),
		rejected: make(map[string]int),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	if len(rl.history) > sweepThreshold {
		rl.sweep(windowStart)
	}

	attempts := rl.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		rl.rejected[key]++
		return false
	}

	rl.history[key] = append(fresh, now)
	return true
}

// Rejected reports how many attempts of key were refused so far.
func (rl *RoomRateLimiter) Rejected(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rejected[key]
}

// sweep forgets keys with no attempt inside the window.
func (rl *RoomRateLimiter) sweep(windowStart time.Time) {
	for key, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, key)
			delete(rl.rejected, key)
		}
	}
}
