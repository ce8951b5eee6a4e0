package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jan-ninh/match3-backend/internal/config"
	"github.com/jan-ninh/match3-backend/internal/database"
	model "github.com/jan-ninh/match3-backend/internal/models"
	"github.com/jan-ninh/match3-backend/internal/scanner"
	"github.com/jan-ninh/match3-backend/internal/services"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

type UpdatePowersRequest struct {
	// Mode "set" remplace les valeurs, mode "add" les incrémente
	Mode   string       `json:"mode"`
	Powers model.Powers `json:"powers"`
}

// GetProfile renvoie le profil complet avec les cœurs régénérés à la volée
// et la progression des stages legacy
func GetProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load config", err)
		return
	}

	ctx := context.Background()

	user, err := scanner.ScanUserProfile(database.DB.QueryRow(ctx,
		`SELECT id, email, username, avatar, bomb, laser, extra_shuffle,
		        total_score, hearts, last_heart_refill_at, created_at, updated_at
		 FROM users WHERE id=$1`,
		userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load profile", err)
		return
	}

	// Régénération paresseuse avant affichage, persistée si elle a produit des cœurs
	hearts, lastRefillAt := services.RefillHearts(user.Hearts, user.LastHeartRefillAt, cfg.MaxHearts, cfg.HeartRefillInterval(), time.Now())
	if hearts != user.Hearts {
		_, err = database.DB.Exec(ctx,
			`UPDATE users SET hearts=$2, last_heart_refill_at=$3, updated_at=NOW() WHERE id=$1`,
			userID, hearts, lastRefillAt,
		)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not update hearts", err)
			return
		}
		user.Hearts = hearts
		user.LastHeartRefillAt = lastRefillAt
	}

	rows, err := database.DB.Query(ctx,
		`SELECT stage_key, completed, points, used_power, last_completed_at
		 FROM user_stage_progress WHERE user_id=$1 ORDER BY stage_key`,
		userID,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load stage progress", err)
		return
	}
	defer rows.Close()

	stages := []model.StageProgress{}
	for rows.Next() {
		p, err := scanner.ScanStageProgress(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "could not scan stage progress", err)
			return
		}
		stages = append(stages, *p)
	}

	utils.Success(w, map[string]interface{}{
		"user":   user,
		"stages": stages,
	})
}

// UpdateAvatar change l'avatar parmi les presets (pas d'upload ici)
func UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	var req UpdateAvatarRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	req.Avatar = strings.TrimSpace(req.Avatar)
	if req.Avatar == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "avatar is required")
		return
	}

	tag, err := database.DB.Exec(context.Background(),
		`UPDATE users SET avatar=$2, updated_at=NOW() WHERE id=$1`,
		userID, req.Avatar,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update avatar", err)
		return
	}
	if tag.RowsAffected() == 0 {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}

	utils.Success(w, map[string]string{"avatar": req.Avatar})
}

// UploadAvatarFile upload un fichier image vers Cloudinary puis enregistre l'URL
func UploadAvatarFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	// 5 MB max
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "missing avatar file", err)
		return
	}
	defer file.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load config", err)
		return
	}

	cld, err := services.NewCloudinaryService(cfg)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "cloudinary unavailable", err)
		return
	}

	ctx := context.Background()

	url, err := cld.UploadAvatar(ctx, file, userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "avatar upload failed", err)
		return
	}

	tag, err := database.DB.Exec(ctx,
		`UPDATE users SET avatar=$2, updated_at=NOW() WHERE id=$1`,
		userID, url,
	)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update avatar", err)
		return
	}
	if tag.RowsAffected() == 0 {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}

	utils.LogInfo("Avatar uploaded for %s (%s, %d bytes)", userID, header.Filename, header.Size)

	utils.Success(w, map[string]string{"avatar": url})
}

// UpdatePowers modifie l'inventaire de pouvoirs (set absolu ou add relatif)
func UpdatePowers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	var req UpdatePowersRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	var query string
	switch req.Mode {
	case "set", "":
		if req.Powers.Bomb < 0 || req.Powers.Laser < 0 || req.Powers.ExtraShuffle < 0 {
			utils.ErrorSimple(w, http.StatusBadRequest, "power counts cannot be negative")
			return
		}
		query = `UPDATE users
		         SET bomb=$2, laser=$3, extra_shuffle=$4, updated_at=NOW()
		         WHERE id=$1
		         RETURNING bomb, laser, extra_shuffle`
	case "add":
		query = `UPDATE users
		         SET bomb=GREATEST(bomb+$2, 0),
		             laser=GREATEST(laser+$3, 0),
		             extra_shuffle=GREATEST(extra_shuffle+$4, 0),
		             updated_at=NOW()
		         WHERE id=$1
		         RETURNING bomb, laser, extra_shuffle`
	default:
		utils.ErrorSimple(w, http.StatusBadRequest, "mode must be 'set' or 'add'")
		return
	}

	var powers model.Powers
	err := database.DB.QueryRow(context.Background(), query,
		userID, req.Powers.Bomb, req.Powers.Laser, req.Powers.ExtraShuffle,
	).Scan(&powers.Bomb, &powers.Laser, &powers.ExtraShuffle)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.ErrorSimple(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not update powers", err)
		return
	}

	utils.Success(w, map[string]interface{}{"powers": powers})
}
