package handler

import (
	"net/http"

	"github.com/jan-ninh/match3-backend/internal/utils"
)

// Root liste les endpoints disponibles
func Root(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, map[string]interface{}{
		"name": "match3-backend",
		"endpoints": []string{
			"GET  /health",
			"POST /api/auth/register",
			"POST /api/auth/login",
			"POST /api/auth/logout",
			"GET  /api/user/profile/{id}",
			"PATCH /api/user/avatar/{id}",
			"POST /api/user/avatar-file/{id}",
			"PATCH /api/user/powers/{id}",
			"POST /api/campaign/start",
			"POST /api/campaign/levelEnd",
			"POST /api/campaign/levelAbort",
			"GET  /api/leaderboard/top10",
			"GET  /api/leaderboard/rank/{id}",
			"POST /api/game/completeStage/{id}/{stageNumber}",
			"POST /api/game/lose/{id}",
			"POST /api/game/abandon/{id}",
			"GET  /api/game/hearts/{id}",
		},
	})
}
