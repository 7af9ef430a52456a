package services

import (
	"log"
	"sync"
	"time"

	"pesanan/internal/models"
)

// HistorySource is the read-side collaborator the rate limiter queries.
// Satisfied by repositories.OrderRepository.
type HistorySource interface {
	HistoryByEmail(email string) ([]models.OrderHistoryEntry, error)
}

// RateLimitResult is the outcome of one rate-limit check. Seq identifies the
// check it belongs to; Stale marks a result whose check was superseded by a
// newer one before it resolved, and which therefore must be ignored.
type RateLimitResult struct {
	Email   string
	Seq     uint64
	Allowed bool
	Err     error // ErrOrderLimitExceeded when denied, nil otherwise
	Stale   bool
}

// RateLimiter caps how many orders an email may place inside a trailing
// window. Checks run asynchronously against the history source; because the
// email can change while a check is in flight, every check is tagged with a
// monotonically increasing sequence number and only the result of the most
// recently started check counts. Last writer wins by initiation order, not
// completion order.
type RateLimiter struct {
	history HistorySource
	window  time.Duration
	limit   int
	now     func() time.Time

	mu     sync.Mutex
	seq    uint64
	latest *RateLimitResult
}

// NewRateLimiter creates a rate limiter with the 3-orders-per-24h policy.
func NewRateLimiter(history HistorySource) *RateLimiter {
	return &RateLimiter{
		history: history,
		window:  24 * time.Hour,
		limit:   3,
		now:     time.Now,
	}
}

// Check starts an asynchronous rate-limit check for email. The returned
// channel delivers exactly one result. If a newer Check is started before
// this one resolves, the result arrives with Stale set and does not become
// the limiter's latest verdict.
func (l *RateLimiter) Check(email string) <-chan RateLimitResult {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	ch := make(chan RateLimitResult, 1)
	go func() {
		res := l.CheckNow(email)
		res.Seq = seq

		l.mu.Lock()
		if seq == l.seq {
			l.latest = &res
		} else {
			res.Stale = true
		}
		l.mu.Unlock()

		ch <- res
	}()
	return ch
}

// Latest returns the resolved result of the most recently started check.
// ok is false while no check has run or the newest check is still in flight.
func (l *RateLimiter) Latest() (RateLimitResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest == nil || l.latest.Seq != l.seq {
		return RateLimitResult{}, false
	}
	return *l.latest, true
}

// CheckNow runs the rate-limit decision synchronously. An empty email passes
// without touching the history source (an incomplete form should not be
// blocked on a lookup). A history fetch failure fails open: the order flow
// favors availability over strict enforcement, so the check passes and the
// error is only logged.
func (l *RateLimiter) CheckNow(email string) RateLimitResult {
	res := RateLimitResult{Email: email, Allowed: true}
	if email == "" {
		return res
	}

	entries, err := l.history.HistoryByEmail(email)
	if err != nil {
		log.Printf("Rate-limit history fetch failed for %s, allowing order: %v", email, err)
		return res
	}

	now := l.now()
	recent := 0
	for _, entry := range entries {
		createdAt := entry.CreatedAt
		if createdAt.IsZero() {
			// An entry without a timestamp counts as just placed.
			createdAt = now
		}
		if now.Sub(createdAt) <= l.window {
			recent++
		}
	}

	if recent >= l.limit {
		res.Allowed = false
		res.Err = ErrOrderLimitExceeded
	}
	return res
}
