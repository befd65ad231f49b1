package mind

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GenLimiter guards the generation call: a global tokens-per-minute budget
// plus a short per-guild cooldown so one busy guild cannot drain the budget.
type GenLimiter struct {
	global *rate.Limiter

	mu          sync.Mutex
	cooldown    time.Duration
	lastByGuild map[string]time.Time
}

func NewGenLimiter(perMinute int, guildCooldown time.Duration) *GenLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &GenLimiter{
		global:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		cooldown:    guildCooldown,
		lastByGuild: make(map[string]time.Time),
	}
}

// Allow reports whether a generation call may run now for this guild and,
// when it may, consumes one global token and starts the guild cooldown.
func (l *GenLimiter) Allow(guildID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastByGuild[guildID]; ok && now.Sub(last) < l.cooldown {
		return false
	}
	if !l.global.AllowN(now, 1) {
		return false
	}
	l.lastByGuild[guildID] = now
	return true
}
