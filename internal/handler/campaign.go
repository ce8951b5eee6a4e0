package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jan-ninh/match3-backend/internal/middleware"
	model "github.com/jan-ninh/match3-backend/internal/models"
	"github.com/jan-ninh/match3-backend/internal/services"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

// Les champs SCREAMING_SNAKE viennent du protocole du client embarqué.
type CampaignStartRequest struct {
	AccountID         *string `json:"ACCOUNT_ID,omitempty"`
	ClientVersion     *string `json:"CLIENT_VERSION,omitempty"`
	Platform          *string `json:"PLATFORM,omitempty"`
	ClientTimestampMs *int64  `json:"CLIENT_TIMESTAMP_MS,omitempty"`
}

type CampaignLevelEndRequest struct {
	CampaignID   string  `json:"CAMPAIGN_ID"`
	AccountID    *string `json:"ACCOUNT_ID,omitempty"`
	LevelIndex   int     `json:"LEVEL_INDEX"`
	AttemptID    string  `json:"ATTEMPT_ID"`
	Outcome      string  `json:"OUTCOME"`
	MovesUsedRaw float64 `json:"MOVES_USED_RAW"`

	ClientTimestampMs *int64  `json:"CLIENT_TIMESTAMP_MS,omitempty"`
	ClientVersion     *string `json:"CLIENT_VERSION,omitempty"`
	LevelConfigHash   *string `json:"LEVEL_CONFIG_HASH,omitempty"`
	Platform          *string `json:"PLATFORM,omitempty"`
}

type CampaignLevelAbortRequest struct {
	CampaignID       string   `json:"CAMPAIGN_ID"`
	AccountID        *string  `json:"ACCOUNT_ID,omitempty"`
	LevelIndex       int      `json:"LEVEL_INDEX"`
	AttemptID        string   `json:"ATTEMPT_ID"`
	AbortReason      string   `json:"ABORT_REASON"`
	MovesUsedAtAbort *float64 `json:"MOVES_USED_AT_ABORT,omitempty"`

	ClientTimestampMs *int64  `json:"CLIENT_TIMESTAMP_MS,omitempty"`
	ClientVersion     *string `json:"CLIENT_VERSION,omitempty"`
	Platform          *string `json:"PLATFORM,omitempty"`
}

// StartCampaign crée un run de campagne et renvoie son identifiant
func StartCampaign(w http.ResponseWriter, r *http.Request) {
	var req CampaignStartRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	accountID := resolveAccountID(r, req.AccountID)

	campaignID, err := services.StartCampaignRun(context.Background(), services.StartCampaignInput{
		AccountID: accountID,
		Meta: model.ClientMeta{
			ClientTimestampMs: req.ClientTimestampMs,
			ClientVersion:     req.ClientVersion,
			Platform:          req.Platform,
		},
	})
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not start campaign", err)
		return
	}

	utils.Success(w, map[string]string{"CAMPAIGN_ID": campaignID})
}

// LevelEnd ingère le résultat définitif d'un niveau (idempotent par ATTEMPT_ID)
func LevelEnd(w http.ResponseWriter, r *http.Request) {
	var req CampaignLevelEndRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if req.CampaignID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "missing CAMPAIGN_ID")
		return
	}

	result, err := services.RecordLevelEnd(context.Background(), services.LevelEndInput{
		CampaignID:   req.CampaignID,
		LevelIndex:   req.LevelIndex,
		AttemptID:    req.AttemptID,
		Outcome:      model.Outcome(req.Outcome),
		MovesUsedRaw: req.MovesUsedRaw,
		Meta: model.ClientMeta{
			ClientTimestampMs: req.ClientTimestampMs,
			ClientVersion:     req.ClientVersion,
			LevelConfigHash:   req.LevelConfigHash,
			Platform:          req.Platform,
		},
	})
	if err != nil {
		writeCampaignError(w, err)
		return
	}

	utils.Success(w, map[string]interface{}{
		"ok":                 true,
		"campaignFinished":   result.CampaignFinished,
		"leaderboardUpdated": result.LeaderboardUpdated,
		"displayScore":       result.DisplayScore,
		"rankKey":            result.RankKey,
	})
}

// LevelAbort enregistre un signal d'abandon (toujours compté comme défaite)
func LevelAbort(w http.ResponseWriter, r *http.Request) {
	var req CampaignLevelAbortRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if req.CampaignID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "missing CAMPAIGN_ID")
		return
	}

	movesUsed := 0.0
	if req.MovesUsedAtAbort != nil {
		movesUsed = *req.MovesUsedAtAbort
	}

	err := services.RecordLevelAbort(context.Background(), services.LevelAbortInput{
		CampaignID:       req.CampaignID,
		LevelIndex:       req.LevelIndex,
		AttemptID:        req.AttemptID,
		AbortReason:      model.AbortReason(req.AbortReason),
		MovesUsedAtAbort: movesUsed,
		Meta: model.ClientMeta{
			ClientTimestampMs: req.ClientTimestampMs,
			ClientVersion:     req.ClientVersion,
			Platform:          req.Platform,
		},
	})
	if err != nil {
		writeCampaignError(w, err)
		return
	}

	utils.Success(w, map[string]bool{"ok": true})
}

func writeCampaignError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.Error(w, http.StatusBadRequest, validationErr.Error(), nil)
	case errors.Is(err, services.ErrCampaignNotFound):
		utils.ErrorSimple(w, http.StatusNotFound, "CAMPAIGN_ID not found")
	case errors.As(err, &conflictErr):
		utils.ErrorWithData(w, http.StatusConflict, "campaign already finished", map[string]interface{}{
			"finishedAt": conflictErr.FinishedAt,
			"runId":      conflictErr.RunID,
		})
	default:
		utils.Error(w, http.StatusInternalServerError, "campaign event failed", err)
	}
}

// resolveAccountID résout l'identité dans l'ordre: session authentifiée,
// header X-Account-Id (dev), champ ACCOUNT_ID du body (dev).
func resolveAccountID(r *http.Request, bodyAccountID *string) *string {
	if user, err := middleware.GetUserFromContext(r); err == nil && user.ID != "" {
		return &user.ID
	}

	if header := strings.TrimSpace(r.Header.Get("X-Account-Id")); header != "" {
		return &header
	}

	if bodyAccountID != nil {
		if v := strings.TrimSpace(*bodyAccountID); v != "" {
			return &v
		}
	}

	return nil
}
