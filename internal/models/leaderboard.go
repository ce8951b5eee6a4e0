package model

import (
	"time"
)

// RankKey est le tuple composite qui ordonne totalement les runs terminés.
// Comparaison lexicographique, plus petit = meilleur.
type RankKey struct {
	TotalLevelsPlayed int    `json:"totalLevelsPlayed"`
	MetaTier          int    `json:"metaTier"`
	MovesMetric       int64  `json:"movesMetric"`
	FinishedAtMs      int64  `json:"finishedAtMs"`
	RunID             string `json:"runId"`
}

// AllTimeLeaderboardEntry garde le meilleur run jamais terminé par compte.
// Seul le Leaderboard Updater écrit dans cette table.
type AllTimeLeaderboardEntry struct {
	AccountID         string    `json:"accountId"`
	Username          string    `json:"username"`
	Avatar            string    `json:"avatar"`
	TotalLevelsPlayed int       `json:"totalLevelsPlayed"`
	MetaTier          int       `json:"metaTier"`
	MovesMetric       int64     `json:"movesMetric"`
	FinishedAt        time.Time `json:"finishedAt"`
	RunID             string    `json:"runId"`
	DisplayScore      int       `json:"displayScore"`
}

func (e *AllTimeLeaderboardEntry) RankKey() RankKey {
	return RankKey{
		TotalLevelsPlayed: e.TotalLevelsPlayed,
		MetaTier:          e.MetaTier,
		MovesMetric:       e.MovesMetric,
		FinishedAtMs:      e.FinishedAt.UnixMilli(),
		RunID:             e.RunID,
	}
}

// LeaderboardPlayer est la ligne renvoyée au client pour le top 10.
type LeaderboardPlayer struct {
	AccountID    string `json:"accountId"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	DisplayScore int    `json:"displayScore"`
}

type MyRank struct {
	Top10     []LeaderboardPlayer `json:"top10"`
	YourRank  int                 `json:"yourRank"`
	YourScore int                 `json:"yourScore"`
	RankKey   RankKey             `json:"yourRankKey"`
}
