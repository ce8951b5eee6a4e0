package api

import (
	"net/http"

	"github.com/fatih/color"
	"github.com/gorilla/mux"
	"github.com/jan-ninh/match3-backend/internal/handler"
	"github.com/jan-ninh/match3-backend/internal/middleware"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

func SetupRouter() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.OptionalAuth)
	r.Use(middleware.LoggerMiddleware)

	authenticatedRoutes := r.PathPrefix("/").Subrouter()
	authenticatedRoutes.Use(middleware.AuthMiddleware)

	// Root - API documentation
	r.HandleFunc("/", handler.Root).Methods(http.MethodGet)

	// Auth
	r.HandleFunc("/api/auth/register", handler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", handler.Login).Methods(http.MethodPost)
	authenticatedRoutes.HandleFunc("/api/auth/logout", handler.Logout).Methods(http.MethodPost)

	// User
	r.HandleFunc("/api/user/profile/{id}", handler.GetProfile).Methods(http.MethodGet)
	authenticatedRoutes.HandleFunc("/api/user/avatar/{id}", handler.UpdateAvatar).Methods(http.MethodPatch)
	authenticatedRoutes.HandleFunc("/api/user/avatar-file/{id}", handler.UploadAvatarFile).Methods(http.MethodPost)
	authenticatedRoutes.HandleFunc("/api/user/powers/{id}", handler.UpdatePowers).Methods(http.MethodPatch)

	// Campaign (identité optionnelle: le client embarqué joue parfois anonyme)
	r.HandleFunc("/api/campaign/start", handler.StartCampaign).Methods(http.MethodPost)
	r.HandleFunc("/api/campaign/levelEnd", handler.LevelEnd).Methods(http.MethodPost)
	r.HandleFunc("/api/campaign/levelAbort", handler.LevelAbort).Methods(http.MethodPost)

	// Leaderboard all-time
	r.HandleFunc("/api/leaderboard/top10", handler.Top10).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/rank/{id}", handler.MyRank).Methods(http.MethodGet)

	// Mode stages legacy + cœurs
	r.HandleFunc("/api/game/completeStage/{id}/{stageNumber}", handler.CompleteStage).Methods(http.MethodPost)
	r.HandleFunc("/api/game/lose/{id}", handler.LoseGame).Methods(http.MethodPost)
	r.HandleFunc("/api/game/abandon/{id}", handler.AbandonGame).Methods(http.MethodPost)
	r.HandleFunc("/api/game/hearts/{id}", handler.GetHearts).Methods(http.MethodGet)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.LogError("404 Not Found: %s %s", r.Method, r.URL.Path)
		color.Yellow("[404] %s %s (route non trouvée)", r.Method, r.URL.Path)
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}
