package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAccountNotRanked = errors.New("account has no finished run")
)

// errRunFinalized: le run est passé terminal entre la lecture et l'écriture
// des compteurs. Reconverti en ConflictError par l'appelant.
var errRunFinalized = errors.New("campaign run finalized concurrently")

// ValidationError: champ d'événement hors domaine, rejeté avant toute écriture.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError: l'événement vise un run déjà terminal. Porte le finishedAt/runId
// existant pour que le client puisse se réconcilier.
type ConflictError struct {
	FinishedAt time.Time
	RunID      string
}

func (e *ConflictError) Error() string {
	return "campaign already finished"
}
