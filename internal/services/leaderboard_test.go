package services

import (
	"testing"
	"time"

	model "github.com/jan-ninh/match3-backend/internal/models"
)

func boardEntry(total, metaTier int, movesMetric, finishedAtMs int64, runID string) model.AllTimeLeaderboardEntry {
	return model.AllTimeLeaderboardEntry{
		AccountID:         "acc-1",
		Username:          "player",
		Avatar:            "default.png",
		TotalLevelsPlayed: total,
		MetaTier:          metaTier,
		MovesMetric:       movesMetric,
		FinishedAt:        time.UnixMilli(finishedAtMs).UTC(),
		RunID:             runID,
	}
}

func TestShouldReplaceEntry(t *testing.T) {
	stored := boardEntry(12, 2, 800_000, 1000, "run-a")

	// Première finition: toujours écrite, même pour un run court (un seul
	// rapport de niveau arrivé avant la victoire finale)
	first := boardEntry(1, 9, 999_999, 5000, "run-z")
	if !shouldReplaceEntry(nil, &first) {
		t.Fatal("first finish must always be stored")
	}

	// Rejeu du run stocké: clé identique, aucune écriture
	replay := stored
	if shouldReplaceEntry(&stored, &replay) {
		t.Fatal("replaying the stored run must not rewrite the entry")
	}

	worse := boardEntry(13, 2, 800_000, 1000, "run-b")
	if shouldReplaceEntry(&stored, &worse) {
		t.Fatal("a worse run must leave the stored entry untouched")
	}

	better := boardEntry(12, 1, 900_000, 2000, "run-c")
	if !shouldReplaceEntry(&stored, &better) {
		t.Fatal("a strictly better run must replace the entry")
	}
}

func TestLeaderboardMonotonicImprovement(t *testing.T) {
	// Applique une suite de finitions à une entrée en mémoire via la même règle
	// d'écriture que l'upsert: la clé stockée ne peut que s'améliorer.
	candidates := []model.AllTimeLeaderboardEntry{
		boardEntry(14, 3, 900_000, 100, "r1"),
		boardEntry(12, 5, 700_000, 200, "r2"),
		boardEntry(13, 0, 100_000, 300, "r3"), // pire dès le premier champ
		boardEntry(12, 5, 700_000, 200, "r2"), // rejeu
		boardEntry(12, 2, 800_000, 400, "r4"),
	}

	var stored *model.AllTimeLeaderboardEntry
	for i, c := range candidates {
		c := c
		if shouldReplaceEntry(stored, &c) {
			if stored != nil && CompareRankKey(c.RankKey(), stored.RankKey()) != -1 {
				t.Fatalf("candidate %d stored without being strictly better", i)
			}
			stored = &c
		}
	}

	if stored == nil || stored.RunID != "r4" {
		t.Fatalf("expected r4 to end up stored, got %+v", stored)
	}
}
