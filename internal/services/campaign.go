package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jan-ninh/match3-backend/internal/database"
	model "github.com/jan-ninh/match3-backend/internal/models"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

type StartCampaignInput struct {
	AccountID *string
	Meta      model.ClientMeta
}

// StartCampaignRun crée un run avec compteurs à zéro et fige le metaTier du
// joueur pour toute la durée du run (0 si compte inconnu/anonyme).
func StartCampaignRun(ctx context.Context, in StartCampaignInput) (string, error) {
	metaTier := 0
	if in.AccountID != nil {
		if snapshot, err := getUserSnapshot(ctx, *in.AccountID); err == nil {
			metaTier = snapshot.MetaTier
		}
	}

	campaignID := NewCampaignID()

	_, err := database.DB.Exec(ctx,
		`INSERT INTO campaign_runs(campaign_id, account_id, meta_tier, meta_version, wins_count, losses_count, started_at, platform, client_version, client_timestamp_ms)
		 VALUES($1, $2, $3, $4, 0, 0, NOW(), $5, $6, $7)`,
		campaignID, in.AccountID, metaTier, CampaignMetaVersion,
		in.Meta.Platform, in.Meta.ClientVersion, in.Meta.ClientTimestampMs,
	)
	if err != nil {
		return "", fmt.Errorf("could not create campaign run: %w", err)
	}

	return campaignID, nil
}

type LevelEndInput struct {
	CampaignID   string
	LevelIndex   int
	AttemptID    string
	Outcome      model.Outcome
	MovesUsedRaw float64
	Meta         model.ClientMeta
}

type LevelEndResult struct {
	CampaignFinished   bool           `json:"campaignFinished"`
	LeaderboardUpdated bool           `json:"leaderboardUpdated"`
	DisplayScore       *int           `json:"displayScore"`
	RankKey            *model.RankKey `json:"rankKey"`
}

// RecordLevelEnd ingère un rapport END de façon idempotente: rejouer le même
// événement à l'identique laisse compteurs et classement inchangés.
func RecordLevelEnd(ctx context.Context, in LevelEndInput) (*LevelEndResult, error) {
	if err := validateAttemptFields(in.LevelIndex, in.AttemptID); err != nil {
		return nil, err
	}
	if !in.Outcome.Valid() {
		return nil, &ValidationError{Field: "OUTCOME", Reason: "must be WIN or LOSS"}
	}

	run, err := loadRun(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if run.Finished() {
		return nil, &ConflictError{FinishedAt: *run.FinishedAt, RunID: derefString(run.RunID)}
	}

	err = ingestAttempt(ctx, run, model.KindEnd, in.AttemptID, in.LevelIndex, in.Outcome, in.MovesUsedRaw, nil, in.Meta)
	if err != nil {
		if errors.Is(err, errRunFinalized) {
			return nil, runFinishedConflict(ctx, in.CampaignID)
		}
		return nil, err
	}

	result := &LevelEndResult{}

	// Seule une victoire au dernier niveau peut terminer la campagne.
	if in.LevelIndex == FinalLevelIndex && in.Outcome == model.OutcomeWin {
		if err := maybeFinalize(ctx, in.CampaignID, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

type LevelAbortInput struct {
	CampaignID       string
	LevelIndex       int
	AttemptID        string
	AbortReason      model.AbortReason
	MovesUsedAtAbort float64
	Meta             model.ClientMeta
}

// RecordLevelAbort enregistre un signal d'abandon provisoire: toujours compté
// comme défaite, remplacé si un END arrive ensuite pour le même attemptId.
func RecordLevelAbort(ctx context.Context, in LevelAbortInput) error {
	if err := validateAttemptFields(in.LevelIndex, in.AttemptID); err != nil {
		return err
	}
	if !in.AbortReason.Valid() {
		return &ValidationError{Field: "ABORT_REASON", Reason: "unknown reason"}
	}

	run, err := loadRun(ctx, in.CampaignID)
	if err != nil {
		return err
	}
	if run.Finished() {
		return &ConflictError{FinishedAt: *run.FinishedAt, RunID: derefString(run.RunID)}
	}

	reason := in.AbortReason
	err = ingestAttempt(ctx, run, model.KindAbort, in.AttemptID, in.LevelIndex, model.OutcomeLoss, in.MovesUsedAtAbort, &reason, in.Meta)
	if errors.Is(err, errRunFinalized) {
		return runFinishedConflict(ctx, in.CampaignID)
	}
	return err
}

// runFinishedConflict recharge le run devenu terminal et reconstruit le
// ConflictError avec son finishedAt/runId.
func runFinishedConflict(ctx context.Context, campaignID string) error {
	run, err := loadRun(ctx, campaignID)
	if err != nil {
		return err
	}
	if !run.Finished() {
		return errRunFinalized
	}
	return &ConflictError{FinishedAt: *run.FinishedAt, RunID: derefString(run.RunID)}
}

func validateAttemptFields(levelIndex int, attemptID string) error {
	if levelIndex < FirstLevelIndex || levelIndex > FinalLevelIndex {
		return &ValidationError{Field: "LEVEL_INDEX", Reason: fmt.Sprintf("must be between %d and %d", FirstLevelIndex, FinalLevelIndex)}
	}
	if attemptID == "" {
		return &ValidationError{Field: "ATTEMPT_ID", Reason: "must not be empty"}
	}
	return nil
}

func loadRun(ctx context.Context, campaignID string) (*model.CampaignRun, error) {
	var run model.CampaignRun
	var accountID, runID sql.NullString
	var finishedAt sql.NullTime

	err := database.DB.QueryRow(ctx,
		`SELECT campaign_id, account_id, meta_tier, wins_count, losses_count, started_at, finished_at, run_id
		 FROM campaign_runs WHERE campaign_id=$1`,
		campaignID,
	).Scan(&run.CampaignID, &accountID, &run.MetaTier, &run.WinsCount, &run.LossesCount, &run.StartedAt, &finishedAt, &runID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("could not load campaign run: %w", err)
	}

	run.AccountID = utils.NullStringToPointer(accountID)
	run.RunID = utils.NullStringToPointer(runID)
	run.FinishedAt = utils.NullTimeToPointer(finishedAt)

	return &run, nil
}

// ingestAttempt écrit la tentative et les compteurs du run dans la même
// transaction: soit les deux aboutissent, soit aucun.
//
// La course à la création est absorbée par ON CONFLICT DO NOTHING: le perdant
// relit la ligne (verrouillée) et applique la logique d'upgrade comme si
// l'enregistrement avait toujours existé. Aucune erreur de clé dupliquée ne
// remonte à l'appelant.
func ingestAttempt(ctx context.Context, run *model.CampaignRun, kind model.AttemptKind, attemptID string, levelIndex int, outcome model.Outcome, movesUsedRaw float64, abortReason *model.AbortReason, meta model.ClientMeta) error {
	moveBudget := MoveBudget(levelIndex)
	movesCounted := ComputeMovesCounted(outcome, movesUsedRaw, moveBudget)
	ratio := ComputeRatio(movesCounted, moveBudget)
	normalizedRaw := NormalizeMovesUsedRaw(movesUsedRaw)

	tx, err := database.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO campaign_attempts(campaign_id, attempt_id, account_id, level_index, kind, outcome, abort_reason, move_budget, moves_used_raw, moves_counted, ratio, client_timestamp_ms, client_version, level_config_hash, platform)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (campaign_id, attempt_id) DO NOTHING`,
		run.CampaignID, attemptID, run.AccountID, levelIndex, string(kind), string(outcome), abortReason,
		moveBudget, normalizedRaw, movesCounted, ratio,
		meta.ClientTimestampMs, meta.ClientVersion, meta.LevelConfigHash, meta.Platform,
	)
	if err != nil {
		return fmt.Errorf("could not insert attempt: %w", err)
	}

	var delta CountsDelta

	if tag.RowsAffected() == 1 {
		_, delta = ResolveAttemptTransition(model.KindAbsent, "", kind, outcome)
	} else {
		// La ligne existe déjà (rejeu ou course perdue): relire sous verrou
		// et décider de la transition.
		var existingKind, existingOutcome string
		err = tx.QueryRow(ctx,
			`SELECT kind, outcome FROM campaign_attempts
			 WHERE campaign_id=$1 AND attempt_id=$2
			 FOR UPDATE`,
			run.CampaignID, attemptID,
		).Scan(&existingKind, &existingOutcome)
		if err != nil {
			return fmt.Errorf("could not reread attempt: %w", err)
		}

		decision, d := ResolveAttemptTransition(model.AttemptKind(existingKind), model.Outcome(existingOutcome), kind, outcome)
		delta = d

		if decision == AttemptUpgrade {
			_, err = tx.Exec(ctx,
				`UPDATE campaign_attempts
				 SET kind=$3, outcome=$4, abort_reason=NULL, level_index=$5, move_budget=$6, moves_used_raw=$7, moves_counted=$8, ratio=$9, updated_at=NOW()
				 WHERE campaign_id=$1 AND attempt_id=$2`,
				run.CampaignID, attemptID, string(kind), string(outcome),
				levelIndex, moveBudget, normalizedRaw, movesCounted, ratio,
			)
			if err != nil {
				return fmt.Errorf("could not upgrade attempt: %w", err)
			}
		}
	}

	if !delta.IsZero() {
		tag, err := tx.Exec(ctx,
			`UPDATE campaign_runs
			 SET wins_count = wins_count + $2, losses_count = losses_count + $3, updated_at=NOW()
			 WHERE campaign_id=$1 AND finished_at IS NULL`,
			run.CampaignID, delta.Wins, delta.Losses,
		)
		if err != nil {
			return fmt.Errorf("could not update run counters: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Le run est devenu terminal entre la lecture et l'écriture:
			// annuler toute la transaction, un run terminé ne bouge plus.
			return errRunFinalized
		}
	}

	return tx.Commit(ctx)
}

// maybeFinalize termine le run exactement une fois. Le UPDATE conditionnel sur
// finished_at IS NULL départage deux victoires finales concurrentes: le perdant
// renvoie la position déjà enregistrée sans re-finaliser.
func maybeFinalize(ctx context.Context, campaignID string, result *LevelEndResult) error {
	runID := NewRunID()

	var accountID sql.NullString
	var metaTier, winsCount, lossesCount int
	var finishedAt time.Time

	err := database.DB.QueryRow(ctx,
		`UPDATE campaign_runs
		 SET finished_at=NOW(), run_id=$2, updated_at=NOW()
		 WHERE campaign_id=$1 AND finished_at IS NULL
		 RETURNING account_id, meta_tier, wins_count, losses_count, finished_at`,
		campaignID, runID,
	).Scan(&accountID, &metaTier, &winsCount, &lossesCount, &finishedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// Déjà finalisé par un événement concurrent: rapporter la position existante.
		return reportExistingStanding(ctx, campaignID, result)
	}
	if err != nil {
		return fmt.Errorf("could not finalize campaign run: %w", err)
	}

	result.CampaignFinished = true

	totalLevelsPlayed := winsCount + lossesCount

	// Un upgrade ABORT->END réécrit la même ligne, la somme ne compte donc
	// jamais deux fois le même attemptId.
	var sumRatio float64
	err = database.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(ratio), 0) FROM campaign_attempts WHERE campaign_id=$1`,
		campaignID,
	).Scan(&sumRatio)
	if err != nil {
		return fmt.Errorf("could not sum attempt ratios: %w", err)
	}

	avgRatio := 1.0
	if totalLevelsPlayed > 0 {
		avgRatio = sumRatio / float64(totalLevelsPlayed)
	}

	rankKey := MakeRankKey(totalLevelsPlayed, metaTier, avgRatio, finishedAt, runID)
	breakdown := ComputeDisplayScore(totalLevelsPlayed, metaTier, avgRatio)

	result.DisplayScore = &breakdown.DisplayScore
	result.RankKey = &rankKey

	// Run anonyme: pas de compte, pas d'entrée au classement.
	if !accountID.Valid {
		return nil
	}

	username, avatar := "Unknown", "default.png"
	if snapshot, err := getUserSnapshot(ctx, accountID.String); err == nil {
		username, avatar = snapshot.Username, snapshot.Avatar
	}

	candidate := model.AllTimeLeaderboardEntry{
		AccountID:         accountID.String,
		Username:          username,
		Avatar:            avatar,
		TotalLevelsPlayed: totalLevelsPlayed,
		MetaTier:          metaTier,
		MovesMetric:       rankKey.MovesMetric,
		FinishedAt:        finishedAt,
		RunID:             runID,
		DisplayScore:      breakdown.DisplayScore,
	}

	updated, effective, err := UpsertLeaderboardIfBetter(ctx, candidate)
	if err != nil {
		return err
	}

	result.LeaderboardUpdated = updated
	if !updated {
		// Pas une amélioration: renvoyer quand même la position en vigueur.
		effectiveKey := effective.RankKey()
		result.DisplayScore = &effective.DisplayScore
		result.RankKey = &effectiveKey
	}

	return nil
}

func reportExistingStanding(ctx context.Context, campaignID string, result *LevelEndResult) error {
	run, err := loadRun(ctx, campaignID)
	if err != nil {
		return err
	}
	if run.AccountID == nil {
		return nil
	}

	entry, err := GetLeaderboardEntry(ctx, *run.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotRanked) {
			return nil
		}
		return err
	}

	key := entry.RankKey()
	result.DisplayScore = &entry.DisplayScore
	result.RankKey = &key

	return nil
}

type userSnapshot struct {
	Username string
	Avatar   string
	MetaTier int
}

func getUserSnapshot(ctx context.Context, accountID string) (*userSnapshot, error) {
	// Les comptes dev/anonymes ne sont pas forcément des ids d'utilisateur.
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, ErrUserNotFound
	}

	var snapshot userSnapshot
	var powers model.Powers

	err := database.DB.QueryRow(ctx,
		`SELECT username, avatar, bomb, laser, extra_shuffle FROM users WHERE id=$1`,
		accountID,
	).Scan(&snapshot.Username, &snapshot.Avatar, &powers.Bomb, &powers.Laser, &powers.ExtraShuffle)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not load user snapshot: %w", err)
	}

	snapshot.MetaTier = ComputeMetaTier(powers)

	return &snapshot, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
