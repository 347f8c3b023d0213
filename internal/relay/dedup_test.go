package relay_test

import (
	"fmt"
	"testing"
	"time"

	"lifeline/internal/relay"
)

func TestLedger_DuplicateObservedOnce(t *testing.T) {
	l := relay.NewLedger(5 * time.Minute)
	now := time.Now()

	if !l.Observe("ev-1", now) {
		t.Fatal("first observation rejected")
	}
	if l.Observe("ev-1", now) {
		t.Fatal("duplicate accepted")
	}
	if !l.Observe("ev-2", now) {
		t.Fatal("distinct id rejected")
	}
}

func TestLedger_StaleRejected(t *testing.T) {
	l := relay.NewLedger(5 * time.Minute)

	if l.Observe("old", time.Now().Add(-6*time.Minute)) {
		t.Fatal("stale event accepted")
	}
	// A rejected stale id must not poison a later fresh one with the same id.
	if !l.Observe("old", time.Now()) {
		t.Fatal("fresh observation rejected after stale attempt")
	}
}

func TestLedger_PruneBoundsMemory(t *testing.T) {
	l := relay.NewLedger(time.Minute)
	for i := 0; i < 100; i++ {
		if !l.Observe(fmt.Sprintf("ev-%d", i), time.Now()) {
			t.Fatalf("observation %d rejected", i)
		}
	}
	l.Prune()
	// Recent ids survive pruning.
	if l.Observe("ev-50", time.Now()) {
		t.Fatal("pruning dropped a fresh id")
	}
}

func TestLedger_ResetForgetsEverything(t *testing.T) {
	l := relay.NewLedger(time.Minute)
	if !l.Observe("ev-1", time.Now()) {
		t.Fatal("first observation rejected")
	}
	l.Reset()
	if !l.Observe("ev-1", time.Now()) {
		t.Fatal("id still remembered after reset")
	}
}
