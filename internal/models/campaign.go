package model

import (
	"time"
)

type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

type AttemptKind string

const (
	// KindAbsent est la valeur zéro: aucune tentative enregistrée pour cet attemptId.
	KindAbsent AttemptKind = ""
	KindEnd    AttemptKind = "END"
	KindAbort  AttemptKind = "ABORT"
)

type AbortReason string

const (
	AbortDisconnect AbortReason = "disconnect"
	AbortQuit       AbortReason = "quit"
	AbortCrash      AbortReason = "crash"
	AbortTimeout    AbortReason = "timeout"
	AbortUnknown    AbortReason = "unknown"
)

func (r AbortReason) Valid() bool {
	switch r {
	case AbortDisconnect, AbortQuit, AbortCrash, AbortTimeout, AbortUnknown:
		return true
	}
	return false
}

// CampaignRun représente une traversée de la campagne (niveaux 1 à 12).
// finished_at + run_id non nuls = run terminal, plus aucune mutation possible.
type CampaignRun struct {
	CampaignID        string     `json:"campaignId"`
	AccountID         *string    `json:"accountId,omitempty"`
	MetaTier          int        `json:"metaTier"`
	MetaVersion       int        `json:"metaVersion"`
	WinsCount         int        `json:"winsCount"`
	LossesCount       int        `json:"lossesCount"`
	StartedAt         time.Time  `json:"startedAt"`
	FinishedAt        *time.Time `json:"finishedAt,omitempty"`
	RunID             *string    `json:"runId,omitempty"`
	Platform          *string    `json:"platform,omitempty"`
	ClientVersion     *string    `json:"clientVersion,omitempty"`
	ClientTimestampMs *int64     `json:"clientTimestampMs,omitempty"`
}

func (r *CampaignRun) Finished() bool {
	return r.FinishedAt != nil
}

// CampaignAttempt est l'unité d'idempotence: unique sur (campaignId, attemptId).
type CampaignAttempt struct {
	CampaignID   string       `json:"campaignId"`
	AttemptID    string       `json:"attemptId"`
	AccountID    *string      `json:"accountId,omitempty"`
	LevelIndex   int          `json:"levelIndex"`
	Kind         AttemptKind  `json:"kind"`
	Outcome      Outcome      `json:"outcome"`
	AbortReason  *AbortReason `json:"abortReason,omitempty"`
	MoveBudget   int          `json:"moveBudget"`
	MovesUsedRaw int          `json:"movesUsedRaw"`
	MovesCounted int          `json:"movesCounted"`
	Ratio        float64      `json:"ratio"`
	CreatedAt    time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty"`
}

// ClientMeta transporte les champs diagnostiques du client, sans effet sur le classement.
type ClientMeta struct {
	ClientTimestampMs *int64
	ClientVersion     *string
	LevelConfigHash   *string
	Platform          *string
}
