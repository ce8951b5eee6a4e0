package services

import (
	"testing"
	"time"
)

func TestRefillHeartsNoopKeepsClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-5 * time.Minute)

	hearts, refillAt := RefillHearts(1, last, 3, 30*time.Minute, now)

	if hearts != 1 {
		t.Fatalf("expected 1 heart, got %d", hearts)
	}
	if !refillAt.Equal(last) {
		t.Fatalf("no-op refill must keep lastRefillAt, got %v (was %v)", refillAt, last)
	}
}

func TestRefillHeartsWholeBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current int
		elapsed time.Duration
		want    int
	}{
		{"just under one bucket", 0, 29*time.Minute + 59*time.Second, 0},
		{"exactly one bucket", 0, 30 * time.Minute, 1},
		{"two buckets plus change", 1, 61 * time.Minute, 3},
		{"capped at max", 0, 10 * time.Hour, 3},
		{"already full stays full", 3, 2 * time.Hour, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.elapsed)
			hearts, refillAt := RefillHearts(tt.current, last, 3, 30*time.Minute, now)

			if hearts != tt.want {
				t.Fatalf("expected %d hearts, got %d", tt.want, hearts)
			}

			if tt.elapsed >= 30*time.Minute {
				// Le crédit partiel vers la tranche suivante est perdu
				if !refillAt.Equal(now) {
					t.Fatalf("refill must move the clock to now, got %v", refillAt)
				}
			} else if !refillAt.Equal(last) {
				t.Fatalf("no-op must keep the clock, got %v", refillAt)
			}
		})
	}
}

func TestRefillHeartsConfiguredInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Tranche de 10 minutes: 25 minutes écoulées donnent 2 cœurs
	hearts, refillAt := RefillHearts(0, now.Add(-25*time.Minute), 3, 10*time.Minute, now)
	if hearts != 2 {
		t.Fatalf("expected 2 hearts with 10-minute interval, got %d", hearts)
	}
	if !refillAt.Equal(now) {
		t.Fatalf("refill must move the clock to now, got %v", refillAt)
	}

	// Intervalle dégénéré: aucun changement
	last := now.Add(-time.Hour)
	hearts, refillAt = RefillHearts(1, last, 3, 0, now)
	if hearts != 1 || !refillAt.Equal(last) {
		t.Fatalf("zero interval must be a no-op, got %d hearts at %v", hearts, refillAt)
	}
}

func TestNextRefillSeconds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval := 30 * time.Minute

	// 10 minutes dans la tranche: il en reste 20
	got := NextRefillSeconds(now.Add(-10*time.Minute), interval, now)
	if got != 20*60 {
		t.Fatalf("expected 1200s, got %d", got)
	}

	// 40 minutes: 10 min dans la deuxième tranche, il en reste 20
	got = NextRefillSeconds(now.Add(-40*time.Minute), interval, now)
	if got != 20*60 {
		t.Fatalf("expected 1200s, got %d", got)
	}

	// Tranche de 10 minutes: 4 minutes écoulées, il en reste 6
	got = NextRefillSeconds(now.Add(-4*time.Minute), 10*time.Minute, now)
	if got != 6*60 {
		t.Fatalf("expected 360s, got %d", got)
	}
}
