package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jan-ninh/match3-backend/internal/database"
	model "github.com/jan-ninh/match3-backend/internal/models"
)

// setupTestDB connecte la base d'intégration et installe le schéma.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("could not connect: %v", err)
	}
	t.Cleanup(pool.Close)

	database.DB = pool
	if err := database.InitSchema(ctx); err != nil {
		t.Fatalf("could not init schema: %v", err)
	}

	return ctx
}

func TestSingleFinalWinReachesLeaderboard(t *testing.T) {
	ctx := setupTestDB(t)

	accountID := "it-" + uuid.NewString()
	campaignID, err := StartCampaignRun(ctx, StartCampaignInput{AccountID: &accountID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Client avec pertes: seul le rapport du niveau 12 est arrivé
	result, err := RecordLevelEnd(ctx, LevelEndInput{
		CampaignID:   campaignID,
		LevelIndex:   FinalLevelIndex,
		AttemptID:    uuid.NewString(),
		Outcome:      model.OutcomeWin,
		MovesUsedRaw: 18,
	})
	if err != nil {
		t.Fatalf("level end: %v", err)
	}
	if !result.CampaignFinished {
		t.Fatal("final win must finish the campaign")
	}
	if !result.LeaderboardUpdated {
		t.Fatal("first finish must insert the leaderboard entry")
	}

	entry, err := GetLeaderboardEntry(ctx, accountID)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.TotalLevelsPlayed != 1 {
		t.Fatalf("expected totalLevelsPlayed 1, got %d", entry.TotalLevelsPlayed)
	}
}

func TestIngestAttemptRejectsConcurrentlyFinalizedRun(t *testing.T) {
	ctx := setupTestDB(t)

	accountID := "it-" + uuid.NewString()
	campaignID, err := StartCampaignRun(ctx, StartCampaignInput{AccountID: &accountID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Instantané du run avant finalisation, tel qu'une requête concurrente
	// l'aurait lu
	stale, err := loadRun(ctx, campaignID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := RecordLevelEnd(ctx, LevelEndInput{
		CampaignID:   campaignID,
		LevelIndex:   FinalLevelIndex,
		AttemptID:    uuid.NewString(),
		Outcome:      model.OutcomeWin,
		MovesUsedRaw: 20,
	}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	err = ingestAttempt(ctx, stale, model.KindEnd, uuid.NewString(), 3, model.OutcomeLoss, 20, nil, model.ClientMeta{})
	if !errors.Is(err, errRunFinalized) {
		t.Fatalf("expected errRunFinalized, got %v", err)
	}

	var wins, losses int
	if err := database.DB.QueryRow(ctx,
		`SELECT wins_count, losses_count FROM campaign_runs WHERE campaign_id=$1`,
		campaignID,
	).Scan(&wins, &losses); err != nil {
		t.Fatalf("reread: %v", err)
	}
	if wins != 1 || losses != 0 {
		t.Fatalf("finalized counters must stay frozen, got wins=%d losses=%d", wins, losses)
	}
}
