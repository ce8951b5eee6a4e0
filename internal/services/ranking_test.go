package services

import (
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	model "github.com/jan-ninh/match3-backend/internal/models"
)

func TestNormalizeMovesUsedRaw(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{12, 12},
		{12.9, 12},
		{-5, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		if got := NormalizeMovesUsedRaw(tt.in); got != tt.want {
			t.Errorf("NormalizeMovesUsedRaw(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestComputeMovesCountedLossFloor(t *testing.T) {
	// Budget 20: une défaite coûte au moins ceil(0.8 * 20) = 16 coups
	if got := ComputeMovesCounted(model.OutcomeLoss, 0, 20); got != 16 {
		t.Fatalf("early abandon on loss must floor at 16, got %d", got)
	}
	if got := ComputeMovesCounted(model.OutcomeLoss, 19, 20); got != 19 {
		t.Fatalf("loss above the floor keeps its raw count, got %d", got)
	}

	// Une victoire n'a pas de plancher
	if got := ComputeMovesCounted(model.OutcomeWin, 3, 20); got != 3 {
		t.Fatalf("win keeps its raw count, got %d", got)
	}
	if got := ComputeMovesCounted(model.OutcomeWin, 0, 20); got != 0 {
		t.Fatalf("zero-move win stays zero, got %d", got)
	}
}

func TestComputeRatio(t *testing.T) {
	if got := ComputeRatio(16, 20); got != 0.8 {
		t.Fatalf("expected 0.8, got %v", got)
	}

	// Budget dégénéré: ratio neutre plutôt qu'une division par zéro
	if got := ComputeRatio(5, 0); got != 1 {
		t.Fatalf("zero budget must yield neutral ratio 1, got %v", got)
	}
	if got := ComputeRatio(5, -1); got != 1 {
		t.Fatalf("negative budget must yield neutral ratio 1, got %v", got)
	}
}

func TestMakeRankKeyMovesMetric(t *testing.T) {
	finishedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	key := MakeRankKey(12, 2, 0.8, finishedAt, "run-1")

	if key.MovesMetric != 800_000 {
		t.Fatalf("avgRatio 0.8 must give movesMetric 800000, got %d", key.MovesMetric)
	}
	if key.FinishedAtMs != finishedAt.UnixMilli() {
		t.Fatalf("finishedAt mismatch: %d", key.FinishedAtMs)
	}

	// Arrondi au plus proche, pas troncature
	key = MakeRankKey(12, 2, 2.0/3.0, finishedAt, "run-1")
	if key.MovesMetric != 666_667 {
		t.Fatalf("expected rounded 666667, got %d", key.MovesMetric)
	}
}

func TestCompareRankKeyFieldPrecedence(t *testing.T) {
	base := model.RankKey{TotalLevelsPlayed: 12, MetaTier: 2, MovesMetric: 800_000, FinishedAtMs: 1000, RunID: "b"}

	better := []model.RankKey{
		{TotalLevelsPlayed: 11, MetaTier: 9, MovesMetric: 999_999, FinishedAtMs: 9999, RunID: "z"},
		{TotalLevelsPlayed: 12, MetaTier: 1, MovesMetric: 999_999, FinishedAtMs: 9999, RunID: "z"},
		{TotalLevelsPlayed: 12, MetaTier: 2, MovesMetric: 799_999, FinishedAtMs: 9999, RunID: "z"},
		{TotalLevelsPlayed: 12, MetaTier: 2, MovesMetric: 800_000, FinishedAtMs: 999, RunID: "z"},
		{TotalLevelsPlayed: 12, MetaTier: 2, MovesMetric: 800_000, FinishedAtMs: 1000, RunID: "a"},
	}

	for i, k := range better {
		if got := CompareRankKey(k, base); got != -1 {
			t.Errorf("case %d: expected -1 (better), got %d", i, got)
		}
		if got := CompareRankKey(base, k); got != 1 {
			t.Errorf("case %d: expected 1 (worse), got %d", i, got)
		}
	}

	if got := CompareRankKey(base, base); got != 0 {
		t.Fatalf("key must equal itself, got %d", got)
	}
}

func TestCompareRankKeyTotalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	keys := make([]model.RankKey, 1000)
	for i := range keys {
		keys[i] = model.RankKey{
			TotalLevelsPlayed: 12 + rng.Intn(4),
			MetaTier:          rng.Intn(10),
			MovesMetric:       int64(rng.Intn(3)) * 100_000,
			FinishedAtMs:      int64(rng.Intn(5)),
			RunID:             string(rune('a' + rng.Intn(26))),
		}
	}

	sorted := func(in []model.RankKey) []model.RankKey {
		out := make([]model.RankKey, len(in))
		copy(out, in)
		sort.SliceStable(out, func(i, j int) bool {
			return CompareRankKey(out[i], out[j]) < 0
		})
		return out
	}

	a := sorted(keys)

	// Mélange puis re-tri: l'ordre doit être identique (ordre total, pas d'égalités ambiguës)
	shuffled := make([]model.RankKey, len(keys))
	copy(shuffled, keys)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	b := sorted(shuffled)

	for i := range a {
		if CompareRankKey(a[i], b[i]) != 0 {
			t.Fatalf("sort is not deterministic at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}

	for i := 1; i < len(a); i++ {
		if CompareRankKey(a[i-1], a[i]) > 0 {
			t.Fatalf("sorted output out of order at index %d", i)
		}
	}
}

func TestComputeDisplayScore(t *testing.T) {
	// Run parfait: 12 niveaux, pas de méta, ratio 0.8 -> 10000 - 0 - 0 - 160
	got := ComputeDisplayScore(12, 0, 0.8)
	if got.DisplayScore != 9840 {
		t.Fatalf("expected 9840, got %d", got.DisplayScore)
	}
	if got.LevelPenalty != 0 || got.MetaPenalty != 0 || got.MovesPenalty != 160 {
		t.Fatalf("unexpected breakdown: %+v", got)
	}

	// Rejouer des niveaux coûte 500 par niveau au-delà de 12
	got = ComputeDisplayScore(15, 3, 1.0)
	want := 10_000 - 3*500 - 3*30 - 200
	if got.DisplayScore != want {
		t.Fatalf("expected %d, got %d", want, got.DisplayScore)
	}

	// Run court (moins de 12 rapports arrivés): aucune pénalité de niveau négative
	got = ComputeDisplayScore(1, 0, 0.8)
	if got.DisplayScore != 9840 || got.LevelPenalty != 0 {
		t.Fatalf("short run must not get a negative level penalty: %+v", got)
	}

	// Jamais négatif
	got = ComputeDisplayScore(50, 9, 1.0)
	if got.DisplayScore != 0 {
		t.Fatalf("score must clamp at 0, got %d", got.DisplayScore)
	}
}

func TestComputeMetaTier(t *testing.T) {
	tests := []struct {
		powers model.Powers
		want   int
	}{
		{model.Powers{}, 0},
		{model.Powers{Bomb: 4}, 0},
		{model.Powers{Bomb: 5}, 1},
		{model.Powers{Bomb: 3, Laser: 3, ExtraShuffle: 3}, 1},
		{model.Powers{Bomb: 20, Laser: 20, ExtraShuffle: 20}, 9},
		{model.Powers{Bomb: -10, Laser: 7}, 1},
	}

	for _, tt := range tests {
		if got := ComputeMetaTier(tt.powers); got != tt.want {
			t.Errorf("ComputeMetaTier(%+v) = %d, want %d", tt.powers, got, tt.want)
		}
	}
}

func TestMoveBudget(t *testing.T) {
	for level := 1; level <= 12; level++ {
		if got := MoveBudget(level); got != 20 {
			t.Errorf("level %d budget = %d, want 20", level, got)
		}
	}
	if got := MoveBudget(99); got != defaultMoveBudget {
		t.Fatalf("unknown level must use the default budget, got %d", got)
	}
}
