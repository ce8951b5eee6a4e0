package services

import (
	"math"
	"time"

	"github.com/google/uuid"
	model "github.com/jan-ninh/match3-backend/internal/models"
)

const CampaignMetaVersion = 1

// LossMinFraction: une défaite compte toujours au moins cette fraction du budget,
// sinon abandonner tôt "coûterait" moins cher que gagner.
const LossMinFraction = 0.8

// FinalLevelIndex est le seul niveau dont la victoire termine la campagne.
const (
	FirstLevelIndex = 1
	FinalLevelIndex = 12
)

// Barème du score d'affichage (cosmétique, jamais utilisé pour le tri)
const (
	displayMaxScore  = 10_000
	displayLevelStep = 500
	displayMetaStep  = 30
	displayMovesStep = 200
)

// Budgets de coups côté serveur (source de vérité, jamais fournis par le client).
var moveBudgetByLevel = map[int]int{
	1: 20, 2: 20, 3: 20, 4: 20, 5: 20, 6: 20,
	7: 20, 8: 20, 9: 20, 10: 20, 11: 20, 12: 20,
}

const defaultMoveBudget = 20

func MoveBudget(levelIndex int) int {
	if budget, ok := moveBudgetByLevel[levelIndex]; ok {
		return budget
	}
	return defaultMoveBudget
}

// NormalizeMovesUsedRaw borne l'entrée client: négatif ou non fini => 0, sinon tronqué.
func NormalizeMovesUsedRaw(movesUsedRaw float64) int {
	if math.IsNaN(movesUsedRaw) || math.IsInf(movesUsedRaw, 0) {
		return 0
	}
	if movesUsedRaw < 0 {
		return 0
	}
	return int(math.Floor(movesUsedRaw))
}

func ComputeMovesCounted(outcome model.Outcome, movesUsedRaw float64, moveBudget int) int {
	raw := NormalizeMovesUsedRaw(movesUsedRaw)

	if outcome == model.OutcomeLoss {
		minLoss := int(math.Ceil(LossMinFraction * float64(moveBudget)))
		if raw < minLoss {
			return minLoss
		}
	}

	return raw
}

func ComputeRatio(movesCounted, moveBudget int) float64 {
	if moveBudget <= 0 {
		return 1
	}
	return float64(movesCounted) / float64(moveBudget)
}

func MakeRankKey(totalLevelsPlayed, metaTier int, avgRatio float64, finishedAt time.Time, runID string) model.RankKey {
	return model.RankKey{
		TotalLevelsPlayed: totalLevelsPlayed,
		MetaTier:          metaTier,
		MovesMetric:       int64(math.Round(avgRatio * 1_000_000)),
		FinishedAtMs:      finishedAt.UnixMilli(),
		RunID:             runID,
	}
}

// CompareRankKey compare lexicographiquement, plus petit = meilleur.
// Renvoie -1 si a est meilleur, 0 si égal, 1 si pire.
func CompareRankKey(a, b model.RankKey) int {
	switch {
	case a.TotalLevelsPlayed != b.TotalLevelsPlayed:
		return orderOf(a.TotalLevelsPlayed < b.TotalLevelsPlayed)
	case a.MetaTier != b.MetaTier:
		return orderOf(a.MetaTier < b.MetaTier)
	case a.MovesMetric != b.MovesMetric:
		return orderOf(a.MovesMetric < b.MovesMetric)
	case a.FinishedAtMs != b.FinishedAtMs:
		return orderOf(a.FinishedAtMs < b.FinishedAtMs)
	case a.RunID != b.RunID:
		return orderOf(a.RunID < b.RunID)
	}
	return 0
}

func orderOf(better bool) int {
	if better {
		return -1
	}
	return 1
}

type DisplayScoreBreakdown struct {
	DisplayScore int `json:"displayScore"`
	LevelPenalty int `json:"levelPenalty"`
	MetaPenalty  int `json:"metaPenalty"`
	MovesPenalty int `json:"movesPenalty"`
}

// ComputeDisplayScore calcule le score cosmétique borné [0, 10000].
func ComputeDisplayScore(totalLevelsPlayed, metaTier int, avgRatio float64) DisplayScoreBreakdown {
	extraLevels := totalLevelsPlayed - FinalLevelIndex
	if extraLevels < 0 {
		extraLevels = 0
	}

	levelPenalty := extraLevels * displayLevelStep
	metaPenalty := metaTier * displayMetaStep
	movesPenalty := int(math.Round(avgRatio * displayMovesStep))

	raw := displayMaxScore - levelPenalty - metaPenalty - movesPenalty
	score := raw
	if score < 0 {
		score = 0
	}
	if score > displayMaxScore {
		score = displayMaxScore
	}

	return DisplayScoreBreakdown{
		DisplayScore: score,
		LevelPenalty: levelPenalty,
		MetaPenalty:  metaPenalty,
		MovesPenalty: movesPenalty,
	}
}

// ComputeMetaTier réduit l'inventaire de pouvoirs en un palier 0..9.
// Heuristique v1: la somme des pouvoirs tient lieu de force méta.
func ComputeMetaTier(powers model.Powers) int {
	const tierSize = 5
	const metaTierMax = 9

	score := clampNonNegative(powers.Bomb) + clampNonNegative(powers.Laser) + clampNonNegative(powers.ExtraShuffle)

	tier := score / tierSize
	if tier > metaTierMax {
		return metaTierMax
	}
	return tier
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func NewCampaignID() string {
	return uuid.NewString()
}

func NewRunID() string {
	return uuid.NewString()
}
