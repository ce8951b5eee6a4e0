package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jan-ninh/match3-backend/internal/services"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

// Top10 renvoie les 10 meilleures entrées du classement all-time,
// ordonnées par la clé de rang (plus petit = meilleur)
func Top10(w http.ResponseWriter, r *http.Request) {
	players, err := services.TopEntries(context.Background(), 10)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "could not query leaderboard", err)
		return
	}

	utils.Success(w, map[string]interface{}{"top10": players})
}

// MyRank renvoie la position globale d'un compte: 1 + nombre d'entrées
// strictement meilleures, plus le top 10 pour l'affichage
func MyRank(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID := vars["id"]

	if accountID == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "missing account id")
		return
	}

	rank, err := services.AccountRank(context.Background(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotRanked) {
			utils.ErrorSimple(w, http.StatusNotFound, "account not in leaderboard")
			return
		}
		utils.Error(w, http.StatusInternalServerError, "could not fetch rank", err)
		return
	}

	utils.Success(w, rank)
}
