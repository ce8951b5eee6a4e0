package services

import (
	"testing"

	model "github.com/jan-ninh/match3-backend/internal/models"
)

func TestResolveAttemptTransition(t *testing.T) {
	tests := []struct {
		name            string
		existingKind    model.AttemptKind
		existingOutcome model.Outcome
		incomingKind    model.AttemptKind
		incomingOutcome model.Outcome
		wantDecision    AttemptDecision
		wantDelta       CountsDelta
	}{
		{
			name:         "first END win creates and counts a win",
			existingKind: model.KindAbsent,
			incomingKind: model.KindEnd, incomingOutcome: model.OutcomeWin,
			wantDecision: AttemptCreate,
			wantDelta:    CountsDelta{Wins: 1},
		},
		{
			name:         "first END loss creates and counts a loss",
			existingKind: model.KindAbsent,
			incomingKind: model.KindEnd, incomingOutcome: model.OutcomeLoss,
			wantDecision: AttemptCreate,
			wantDelta:    CountsDelta{Losses: 1},
		},
		{
			name:         "first ABORT creates as loss",
			existingKind: model.KindAbsent,
			incomingKind: model.KindAbort, incomingOutcome: model.OutcomeLoss,
			wantDecision: AttemptCreate,
			wantDelta:    CountsDelta{Losses: 1},
		},
		{
			name:         "END replay is a noop",
			existingKind: model.KindEnd, existingOutcome: model.OutcomeWin,
			incomingKind: model.KindEnd, incomingOutcome: model.OutcomeWin,
			wantDecision: AttemptNoop,
		},
		{
			name:         "END replay with different outcome is still a noop",
			existingKind: model.KindEnd, existingOutcome: model.OutcomeWin,
			incomingKind: model.KindEnd, incomingOutcome: model.OutcomeLoss,
			wantDecision: AttemptNoop,
		},
		{
			name:         "late ABORT after END is ignored",
			existingKind: model.KindEnd, existingOutcome: model.OutcomeLoss,
			incomingKind: model.KindAbort, incomingOutcome: model.OutcomeLoss,
			wantDecision: AttemptNoop,
		},
		{
			name:         "ABORT replay is a noop",
			existingKind: model.KindAbort, existingOutcome: model.OutcomeLoss,
			incomingKind: model.KindAbort, incomingOutcome: model.OutcomeLoss,
			wantDecision: AttemptNoop,
		},
		{
			name:         "ABORT upgraded to END win swaps a loss for a win",
			existingKind: model.KindAbort, existingOutcome: model.OutcomeLoss,
			incomingKind: model.KindEnd, incomingOutcome: model.OutcomeWin,
			wantDecision: AttemptUpgrade,
			wantDelta:    CountsDelta{Wins: 1, Losses: -1},
		},
		{
			name:         "ABORT upgraded to END loss changes nothing in the counters",
			existingKind: model.KindAbort, existingOutcome: model.OutcomeLoss,
			incomingKind: model.KindEnd, incomingOutcome: model.OutcomeLoss,
			wantDecision: AttemptUpgrade,
			wantDelta:    CountsDelta{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, delta := ResolveAttemptTransition(tt.existingKind, tt.existingOutcome, tt.incomingKind, tt.incomingOutcome)

			if decision != tt.wantDecision {
				t.Fatalf("expected decision %v, got %v", tt.wantDecision, decision)
			}
			if delta != tt.wantDelta {
				t.Fatalf("expected delta %+v, got %+v", tt.wantDelta, delta)
			}
		})
	}
}

func TestCountsDeltaIsZero(t *testing.T) {
	if !(CountsDelta{}).IsZero() {
		t.Fatal("empty delta must be zero")
	}
	if (CountsDelta{Wins: 1, Losses: -1}).IsZero() {
		t.Fatal("non-empty delta must not be zero")
	}
}
