package registry

import (
	"sync"

	"golang.org/x/time/rate"
)

// userLimits keeps one token bucket per author. Buckets are created on first
// use and never expire; chat user populations are small enough that this is
// fine for the life of a process.
type userLimits struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	users map[string]*rate.Limiter
}

func newUserLimits(limit rate.Limit, burst int) *userLimits {
	return &userLimits{
		limit: limit,
		burst: burst,
		users: make(map[string]*rate.Limiter),
	}
}

// allow reports whether userID may dispatch another command now.
func (l *userLimits) allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.users[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.users[userID] = lim
	}
	return lim.Allow()
}
