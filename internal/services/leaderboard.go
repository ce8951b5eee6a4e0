package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jan-ninh/match3-backend/internal/database"
	model "github.com/jan-ninh/match3-backend/internal/models"
)

// rankKeyOrder est l'ordre de tri SQL du classement, aligné sur CompareRankKey.
const rankKeyOrder = `total_levels_played, meta_tier, moves_metric, finished_at, run_id`

const upsertMaxRetries = 3

// UpsertLeaderboardIfBetter remplace l'entrée du compte uniquement si le run
// candidat est strictement meilleur. Lecture, comparaison, puis remplacement
// conditionnel avec retry optimiste: le comparateur est monotone, un retry ne
// peut pas dégrader le résultat.
//
// Renvoie (updated, entrée en vigueur après l'appel).
func UpsertLeaderboardIfBetter(ctx context.Context, candidate model.AllTimeLeaderboardEntry) (bool, *model.AllTimeLeaderboardEntry, error) {
	for attempt := 0; attempt < upsertMaxRetries; attempt++ {
		existing, err := GetLeaderboardEntry(ctx, candidate.AccountID)

		if errors.Is(err, ErrAccountNotRanked) {
			// Première finition de ce compte: insertion inconditionnelle.
			tag, err := database.DB.Exec(ctx,
				`INSERT INTO all_time_leaderboard(account_id, username, avatar, total_levels_played, meta_tier, moves_metric, finished_at, run_id, display_score)
				 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (account_id) DO NOTHING`,
				candidate.AccountID, candidate.Username, candidate.Avatar,
				candidate.TotalLevelsPlayed, candidate.MetaTier, candidate.MovesMetric,
				candidate.FinishedAt, candidate.RunID, candidate.DisplayScore,
			)
			if err != nil {
				return false, nil, fmt.Errorf("could not insert leaderboard entry: %w", err)
			}
			if tag.RowsAffected() == 1 {
				return true, &candidate, nil
			}
			// Course perdue contre un autre finisseur du même compte: relire.
			continue
		}
		if err != nil {
			return false, nil, err
		}

		if !shouldReplaceEntry(existing, &candidate) {
			// Pas strictement meilleur: l'entrée stockée reste intouchée.
			return false, existing, nil
		}

		// Remplacement conditionné au run_id lu (contrôle optimiste).
		tag, err := database.DB.Exec(ctx,
			`UPDATE all_time_leaderboard
			 SET username=$2, avatar=$3, total_levels_played=$4, meta_tier=$5, moves_metric=$6, finished_at=$7, run_id=$8, display_score=$9, updated_at=NOW()
			 WHERE account_id=$1 AND run_id=$10`,
			candidate.AccountID, candidate.Username, candidate.Avatar,
			candidate.TotalLevelsPlayed, candidate.MetaTier, candidate.MovesMetric,
			candidate.FinishedAt, candidate.RunID, candidate.DisplayScore,
			existing.RunID,
		)
		if err != nil {
			return false, nil, fmt.Errorf("could not update leaderboard entry: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return true, &candidate, nil
		}
		// Écriture concurrente entre lecture et remplacement: recommencer.
	}

	// Après les retries, rapporter l'entrée en vigueur sans la modifier.
	existing, err := GetLeaderboardEntry(ctx, candidate.AccountID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

// shouldReplaceEntry est la règle d'écriture du classement: aucune entrée
// stockée => on écrit, sinon uniquement si le candidat est strictement
// meilleur. Un rejeu du run stocké (clé égale) est sans effet.
func shouldReplaceEntry(existing, candidate *model.AllTimeLeaderboardEntry) bool {
	if existing == nil {
		return true
	}
	return CompareRankKey(candidate.RankKey(), existing.RankKey()) == -1
}

func GetLeaderboardEntry(ctx context.Context, accountID string) (*model.AllTimeLeaderboardEntry, error) {
	var entry model.AllTimeLeaderboardEntry

	err := database.DB.QueryRow(ctx,
		`SELECT account_id, username, avatar, total_levels_played, meta_tier, moves_metric, finished_at, run_id, display_score
		 FROM all_time_leaderboard WHERE account_id=$1`,
		accountID,
	).Scan(
		&entry.AccountID, &entry.Username, &entry.Avatar,
		&entry.TotalLevelsPlayed, &entry.MetaTier, &entry.MovesMetric,
		&entry.FinishedAt, &entry.RunID, &entry.DisplayScore,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotRanked
		}
		return nil, fmt.Errorf("could not load leaderboard entry: %w", err)
	}

	return &entry, nil
}

// TopEntries renvoie les n meilleures entrées, ordonnées par la clé de rang.
func TopEntries(ctx context.Context, n int) ([]model.LeaderboardPlayer, error) {
	rows, err := database.DB.Query(ctx,
		`SELECT account_id, username, avatar, display_score
		 FROM all_time_leaderboard
		 ORDER BY `+rankKeyOrder+`
		 LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query leaderboard: %w", err)
	}
	defer rows.Close()

	players := []model.LeaderboardPlayer{}
	for rows.Next() {
		var p model.LeaderboardPlayer
		if err := rows.Scan(&p.AccountID, &p.Username, &p.Avatar, &p.DisplayScore); err != nil {
			return nil, fmt.Errorf("could not scan leaderboard row: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// AccountRank calcule la position globale: 1 + nombre d'entrées strictement
// meilleures, via la même comparaison lexicographique à cinq champs que
// CompareRankKey (comparaison de lignes Postgres).
func AccountRank(ctx context.Context, accountID string) (*model.MyRank, error) {
	entry, err := GetLeaderboardEntry(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var betterCount int
	err = database.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM all_time_leaderboard
		 WHERE (`+rankKeyOrder+`) < ($1, $2, $3, $4, $5)`,
		entry.TotalLevelsPlayed, entry.MetaTier, entry.MovesMetric, entry.FinishedAt, entry.RunID,
	).Scan(&betterCount)
	if err != nil {
		return nil, fmt.Errorf("could not count better entries: %w", err)
	}

	top10, err := TopEntries(ctx, 10)
	if err != nil {
		return nil, err
	}

	return &model.MyRank{
		Top10:     top10,
		YourRank:  betterCount + 1,
		YourScore: entry.DisplayScore,
		RankKey:   entry.RankKey(),
	}, nil
}
