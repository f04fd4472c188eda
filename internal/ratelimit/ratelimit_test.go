package ratelimit

import (
	"testing"
)

func TestAllowWithinLimit(t *testing.T) {
	t.Parallel()

	l := NewClientLimiter(60)
	for i := range 60 {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("Expected request %d to be allowed within burst", i)
		}
	}
}

func TestAllowRejectsOverBurst(t *testing.T) {
	t.Parallel()

	l := NewClientLimiter(5)
	for range 5 {
		l.Allow("10.0.0.1")
	}
	if l.Allow("10.0.0.1") {
		t.Error("Expected request over burst to be rejected")
	}
}

func TestClientsIsolated(t *testing.T) {
	t.Parallel()

	l := NewClientLimiter(1)
	if !l.Allow("10.0.0.1") {
		t.Fatal("Expected first client to be allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("Expected second client to have its own bucket")
	}
	if l.Clients() != 2 {
		t.Errorf("Expected 2 tracked clients, got %d", l.Clients())
	}
}

func TestZeroLimitMeansUnlimited(t *testing.T) {
	t.Parallel()

	l := NewClientLimiter(0)
	for range 1000 {
		if !l.Allow("10.0.0.1") {
			t.Fatal("Expected unlimited limiter to always allow")
		}
	}
	if l.Clients() != 0 {
		t.Error("Expected unlimited limiter to track nothing")
	}
}
