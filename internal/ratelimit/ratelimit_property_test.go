package ratelimit

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestClientLimiter_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Property 1: a fresh client can always spend its full burst
	properties.Property("fresh client gets full burst", prop.ForAll(
		func(rpm int) bool {
			l := NewClientLimiter(rpm)
			for i := range rpm {
				if !l.Allow("client") {
					return i > 0 // never reject the very first request
				}
			}
			return true
		},
		gen.IntRange(1, 200),
	))

	// Property 2: non-positive limits never reject
	properties.Property("non-positive limit never rejects", prop.ForAll(
		func(rpm, requests int) bool {
			l := NewClientLimiter(rpm)
			for range requests {
				if !l.Allow("client") {
					return false
				}
			}
			return true
		},
		gen.IntRange(-100, 0),
		gen.IntRange(1, 500),
	))

	// Property 3: one client exhausting its bucket never affects another
	properties.Property("buckets are per-client", prop.ForAll(
		func(rpm, clients int) bool {
			l := NewClientLimiter(rpm)
			for range rpm + 10 {
				l.Allow("greedy")
			}
			for i := range clients {
				if !l.Allow(fmt.Sprintf("client-%d", i)) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
