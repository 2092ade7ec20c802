package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// MusicBrainzInterval is the minimum spacing between MusicBrainz requests.
// The service allows 1 req/s; the extra 100ms absorbs clock skew.
const MusicBrainzInterval = 1100 * time.Millisecond

// Limiter spaces requests to a single provider at least one interval apart.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a limiter allowing one request per interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// Note records a request that was sent without waiting, so the next Wait
// still keeps its distance from it.
func (l *Limiter) Note() {
	l.lim.Reserve()
}

// Wait blocks until the next request is allowed or ctx is done. It sleeps
// on a timer rather than spinning.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
