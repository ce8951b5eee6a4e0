package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jan-ninh/match3-backend/internal/database"
	model "github.com/jan-ninh/match3-backend/internal/models"
	"github.com/jan-ninh/match3-backend/internal/scanner"
	"github.com/jan-ninh/match3-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register crée un compte et ouvre directement une session
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Username == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "email and username are required")
		return
	}
	if len(req.Password) < 8 {
		utils.ErrorSimple(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not hash password", err)
		return
	}

	ctx := context.Background()

	var userID string
	err = database.DB.QueryRow(ctx,
		`INSERT INTO users(email, username, password_hash)
		 VALUES($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 RETURNING id`,
		req.Email, req.Username, string(hash),
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.ErrorSimple(w, http.StatusConflict, "email or username already taken")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not create user", err)
		return
	}

	ip, userAgent := utils.ExtractIPAndUserAgent(r)
	token, err := utils.CreateSession(ctx, userID, ip, userAgent)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not create session", err)
		return
	}

	utils.LogInfo("New user registered: %s", req.Username)

	utils.Success(w, map[string]interface{}{
		"token": token,
		"user": model.UserProfile{
			ID:       userID,
			Email:    req.Email,
			Username: req.Username,
		},
	})
}

// Login vérifie les identifiants et ouvre une session
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx := context.Background()

	var userID, passwordHash string
	err := database.DB.QueryRow(ctx,
		`SELECT id, password_hash FROM users WHERE email=$1`,
		req.Email,
	).Scan(&userID, &passwordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.ErrorSimple(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query user", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		utils.ErrorSimple(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	ip, userAgent := utils.ExtractIPAndUserAgent(r)
	token, err := utils.CreateSession(ctx, userID, ip, userAgent)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not create session", err)
		return
	}

	user, err := scanner.ScanUserProfile(database.DB.QueryRow(ctx,
		`SELECT id, email, username, avatar, bomb, laser, extra_shuffle,
		        total_score, hearts, last_heart_refill_at, created_at, updated_at
		 FROM users WHERE id=$1`,
		userID,
	))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not load profile", err)
		return
	}

	utils.Success(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout invalide la session courante
func Logout(w http.ResponseWriter, r *http.Request) {
	token, err := utils.GetToken(r)
	if err != nil {
		utils.ErrorSimple(w, http.StatusUnauthorized, "missing token")
		return
	}

	if err := utils.InvalidateSession(context.Background(), token); err != nil {
		utils.Error(w, http.StatusUnauthorized, "invalid session", err)
		return
	}

	utils.Message(w, "logged out")
}
