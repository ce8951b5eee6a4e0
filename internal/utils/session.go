package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jan-ninh/match3-backend/internal/database"
)

// SessionDuration durée de validité d'une session (24h)
const SessionDuration = 24 * time.Hour

// CreateSession crée une nouvelle session pour un utilisateur
func CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (string, error) {
	token := uuid.NewString()
	now := time.Now()

	var sessionID string
	err := database.DB.QueryRow(ctx,
		`INSERT INTO sessions(user_id, token, ip_address, user_agent, is_active, created_at, expires_at)
		 VALUES($1, $2, $3, $4, true, $5, $6)
		 RETURNING id`,
		userID, token, ipAddress, userAgent, now, now.Add(SessionDuration),
	).Scan(&sessionID)

	if err != nil {
		return "", err
	}

	return token, nil
}

// InvalidateSession invalide une session (soft delete)
func InvalidateSession(ctx context.Context, token string) error {
	res, err := database.DB.Exec(ctx,
		`UPDATE sessions
		 SET is_active=false, deleted_at=NOW()
		 WHERE token=$1 AND is_active=true AND deleted_at IS NULL`,
		token,
	)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return fmt.Errorf("session introuvable ou déjà invalide")
	}

	return nil
}
