// Package ratelimit provides per-client request limiting for the resolver
// API, built on golang.org/x/time/rate token buckets. Burst equals the
// per-minute limit, so a client can spend a full minute's capacity at once
// and then refills gradually.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const staleAfter = 10 * time.Minute

// ClientLimiter hands out one token bucket per client key (usually the
// remote IP). Buckets idle longer than ten minutes are dropped.
type ClientLimiter struct {
	mu      sync.Mutex
	rpm     int
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a limiter allowing rpm requests per minute per
// client. Zero or negative rpm disables limiting.
func NewClientLimiter(rpm int) *ClientLimiter {
	return &ClientLimiter{
		rpm:     rpm,
		clients: make(map[string]*clientBucket),
	}
}

// Allow reports whether one request from the client may proceed now.
func (l *ClientLimiter) Allow(client string) bool {
	if l.rpm <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	bucket, ok := l.clients[client]
	if !ok {
		bucket = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), l.rpm),
		}
		l.clients[client] = bucket
		l.purgeLocked(now)
	}
	bucket.lastSeen = now

	return bucket.limiter.Allow()
}

// Clients returns the number of tracked clients.
func (l *ClientLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// purgeLocked drops buckets that have not been seen recently. Called with
// the mutex held, on bucket creation, so steady-state traffic pays
// nothing.
func (l *ClientLimiter) purgeLocked(now time.Time) {
	for client, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > staleAfter {
			delete(l.clients, client)
		}
	}
}
