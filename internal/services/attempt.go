package services

import (
	model "github.com/jan-ninh/match3-backend/internal/models"
)

// AttemptDecision dit quoi faire d'un événement selon l'état courant du registre.
type AttemptDecision int

const (
	// AttemptCreate: aucune tentative pour cet attemptId, on la crée.
	AttemptCreate AttemptDecision = iota
	// AttemptUpgrade: la tentative ABORT existante passe à END (résultat réel arrivé après coup).
	AttemptUpgrade
	// AttemptNoop: rejeu idempotent ou ABORT tardif après END, rien à écrire.
	AttemptNoop
)

// CountsDelta est l'ajustement à appliquer aux compteurs du run.
type CountsDelta struct {
	Wins   int
	Losses int
}

func (d CountsDelta) IsZero() bool {
	return d.Wins == 0 && d.Losses == 0
}

// ResolveAttemptTransition est la table de transition complète du registre de
// tentatives. existingKind == KindAbsent signifie qu'aucun enregistrement
// n'existe. END est terminal: rien ne le quitte, un ABORT tardif est ignoré.
func ResolveAttemptTransition(existingKind model.AttemptKind, existingOutcome model.Outcome, incomingKind model.AttemptKind, incomingOutcome model.Outcome) (AttemptDecision, CountsDelta) {
	switch existingKind {
	case model.KindAbsent:
		return AttemptCreate, CountsDelta{
			Wins:   outcomeIndicator(incomingOutcome, model.OutcomeWin),
			Losses: outcomeIndicator(incomingOutcome, model.OutcomeLoss),
		}

	case model.KindEnd:
		// END fait autorité: rejeu d'END et ABORT tardif sont tous deux sans effet.
		return AttemptNoop, CountsDelta{}

	default: // model.KindAbort
		if incomingKind == model.KindAbort {
			return AttemptNoop, CountsDelta{}
		}

		// ABORT -> END: le delta est (nouveau indicateur) - (ancien indicateur).
		return AttemptUpgrade, CountsDelta{
			Wins:   outcomeIndicator(incomingOutcome, model.OutcomeWin) - outcomeIndicator(existingOutcome, model.OutcomeWin),
			Losses: outcomeIndicator(incomingOutcome, model.OutcomeLoss) - outcomeIndicator(existingOutcome, model.OutcomeLoss),
		}
	}
}

func outcomeIndicator(outcome, target model.Outcome) int {
	if outcome == target {
		return 1
	}
	return 0
}
