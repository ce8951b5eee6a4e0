package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jan-ninh/match3-backend/internal/config"
	"github.com/jan-ninh/match3-backend/internal/database"
	model "github.com/jan-ninh/match3-backend/internal/models"
	"github.com/jan-ninh/match3-backend/internal/services"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

// Points du mode stages legacy: première complétion vs rejeu
const (
	firstTimePoints = 800
	repeatPoints    = 400
)

type CompleteStageRequest struct {
	UsedPower *model.PowerKey `json:"usedPower,omitempty"`
}

// CompleteStage valide la complétion d'un stage legacy: stage précédent requis,
// consommation de pouvoir, points et score total
func CompleteStage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	stageNum, err := strconv.Atoi(vars["stageNumber"])
	if err != nil || stageNum < 1 || stageNum > 12 {
		utils.ErrorSimple(w, http.StatusBadRequest, "invalid stage number")
		return
	}

	var req CompleteStageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	ctx := context.Background()
	stageKey := fmt.Sprintf("stage%d", stageNum)

	var exists bool
	err = database.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists)
	if err != nil || !exists {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}

	// stage1 toujours déverrouillé, les autres exigent le stage précédent
	if stageNum > 1 {
		prevKey := fmt.Sprintf("stage%d", stageNum-1)
		var prevCompleted bool
		err = database.DB.QueryRow(ctx,
			`SELECT completed FROM user_stage_progress WHERE user_id=$1 AND stage_key=$2`,
			userID, prevKey,
		).Scan(&prevCompleted)
		if (err != nil && !errors.Is(err, pgx.ErrNoRows)) || !prevCompleted {
			utils.ErrorSimple(w, http.StatusForbidden, "previous stage not completed")
			return
		}
	}

	var alreadyCompleted bool
	err = database.DB.QueryRow(ctx,
		`SELECT completed FROM user_stage_progress WHERE user_id=$1 AND stage_key=$2`,
		userID, stageKey,
	).Scan(&alreadyCompleted)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		utils.Error(w, http.StatusInternalServerError, "could not load stage progress", err)
		return
	}

	points := firstTimePoints
	if alreadyCompleted {
		points = repeatPoints
	}

	// Consommation du pouvoir déclaré, refusée si l'inventaire est vide
	if req.UsedPower != nil {
		column, ok := powerColumn(*req.UsedPower)
		if !ok {
			utils.ErrorSimple(w, http.StatusBadRequest, "unknown power")
			return
		}

		tag, err := database.DB.Exec(ctx,
			`UPDATE users SET `+column+` = `+column+` - 1, updated_at=NOW() WHERE id=$1 AND `+column+` > 0`,
			userID,
		)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not consume power", err)
			return
		}
		if tag.RowsAffected() == 0 {
			utils.ErrorSimple(w, http.StatusBadRequest, fmt.Sprintf("no %s available", *req.UsedPower))
			return
		}
	}

	_, err = database.DB.Exec(ctx,
		`INSERT INTO user_stage_progress(user_id, stage_key, completed, points, used_power, last_completed_at)
		 VALUES($1, $2, TRUE, $3, $4, NOW())
		 ON CONFLICT (user_id, stage_key)
		 DO UPDATE SET completed=TRUE, points=$3, used_power=$4, last_completed_at=NOW()`,
		userID, stageKey, points, req.UsedPower,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not save stage progress", err)
		return
	}

	var totalScore int
	var powers model.Powers
	err = database.DB.QueryRow(ctx,
		`UPDATE users SET total_score = total_score + $2, updated_at=NOW()
		 WHERE id=$1
		 RETURNING total_score, bomb, laser, extra_shuffle`,
		userID, points,
	).Scan(&totalScore, &powers.Bomb, &powers.Laser, &powers.ExtraShuffle)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update total score", err)
		return
	}

	utils.Success(w, map[string]interface{}{
		"stage":      stageKey,
		"points":     points,
		"totalScore": totalScore,
		"powers":     powers,
	})
}

// LoseGame applique la régénération paresseuse puis consomme un cœur
func LoseGame(w http.ResponseWriter, r *http.Request) {
	consumeHeart(w, r, "Game lost, heart decreased")
}

// AbandonGame applique la régénération paresseuse puis consomme un cœur
func AbandonGame(w http.ResponseWriter, r *http.Request) {
	consumeHeart(w, r, "Game abandoned, heart decreased")
}

func consumeHeart(w http.ResponseWriter, r *http.Request, message string) {
	vars := mux.Vars(r)
	userID := vars["id"]

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load config", err)
		return
	}

	ctx := context.Background()

	hearts, lastRefillAt, err := applyLazyRefill(ctx, userID, cfg.MaxHearts, cfg.HeartRefillInterval())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "user not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not refill hearts", err)
		return
	}

	if hearts > 0 {
		hearts--
	}

	_, err = database.DB.Exec(ctx,
		`UPDATE users SET hearts=$2, last_heart_refill_at=$3, updated_at=NOW() WHERE id=$1`,
		userID, hearts, lastRefillAt,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update hearts", err)
		return
	}

	utils.Success(w, map[string]interface{}{
		"message": message,
		"hearts":  hearts,
	})
}

// GetHearts renvoie le statut des cœurs après régénération paresseuse
func GetHearts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load config", err)
		return
	}

	ctx := context.Background()

	hearts, lastRefillAt, err := applyLazyRefill(ctx, userID, cfg.MaxHearts, cfg.HeartRefillInterval())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.ErrorSimple(w, http.StatusNotFound, "user not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not refill hearts", err)
		return
	}

	_, err = database.DB.Exec(ctx,
		`UPDATE users SET hearts=$2, last_heart_refill_at=$3, updated_at=NOW() WHERE id=$1`,
		userID, hearts, lastRefillAt,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update hearts", err)
		return
	}

	utils.Success(w, model.HeartStatus{
		Hearts:            hearts,
		MaxHearts:         cfg.MaxHearts,
		LastHeartRefillAt: lastRefillAt,
		NextRefillSeconds: services.NextRefillSeconds(lastRefillAt, cfg.HeartRefillInterval(), time.Now()),
	})
}

// applyLazyRefill lit les cœurs et applique la même fonction pure que le
// balayage périodique, sans persister (les appelants écrivent le résultat)
func applyLazyRefill(ctx context.Context, userID string, maxHearts int, interval time.Duration) (int, time.Time, error) {
	var hearts int
	var lastRefillAt time.Time

	err := database.DB.QueryRow(ctx,
		`SELECT hearts, last_heart_refill_at FROM users WHERE id=$1`,
		userID,
	).Scan(&hearts, &lastRefillAt)
	if err != nil {
		return 0, time.Time{}, err
	}

	hearts, lastRefillAt = services.RefillHearts(hearts, lastRefillAt, maxHearts, interval, time.Now())

	return hearts, lastRefillAt, nil
}

func powerColumn(power model.PowerKey) (string, bool) {
	switch power {
	case model.PowerBomb:
		return "bomb", true
	case model.PowerLaser:
		return "laser", true
	case model.PowerExtraShuffle:
		return "extra_shuffle", true
	}
	return "", false
}
