package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jan-ninh/match3-backend/internal/database"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

// HealthCheck vérifie que le serveur et la base répondent
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := database.DB.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	utils.Success(w, map[string]interface{}{
		"status":    "ok",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
