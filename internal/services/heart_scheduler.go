package services

import (
	"context"
	"time"

	"github.com/jan-ninh/match3-backend/internal/database"
	"github.com/jan-ninh/match3-backend/internal/logger"
)

// StartHeartRefillScheduler lance le balayage périodique des comptes sous le
// maximum de cœurs. Le chemin paresseux (lecture de profil/statut) applique la
// même fonction pure, les deux chemins convergent donc vers le même état.
func StartHeartRefillScheduler(ctx context.Context, maxHearts int, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sweepHeartRefill(ctx, maxHearts, interval); err != nil {
					logger.Error("heart refill sweep failed: %v", err)
				}
			}
		}
	}()
}

func sweepHeartRefill(ctx context.Context, maxHearts int, interval time.Duration) error {
	rows, err := database.DB.Query(ctx,
		`SELECT id, hearts, last_heart_refill_at FROM users WHERE hearts < $1`,
		maxHearts,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	type pending struct {
		id           string
		hearts       int
		lastRefillAt time.Time
	}

	var updates []pending
	now := time.Now()

	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.hearts, &p.lastRefillAt); err != nil {
			return err
		}

		hearts, refillAt := RefillHearts(p.hearts, p.lastRefillAt, maxHearts, interval, now)
		if hearts != p.hearts {
			updates = append(updates, pending{id: p.id, hearts: hearts, lastRefillAt: refillAt})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Dernier écrivain gagnant sur last_heart_refill_at: la fonction de refill
	// est idempotente à l'intérieur d'une même tranche, une course avec le
	// chemin paresseux est donc sans danger.
	for _, u := range updates {
		_, err := database.DB.Exec(ctx,
			`UPDATE users SET hearts=$2, last_heart_refill_at=$3, updated_at=NOW() WHERE id=$1`,
			u.id, u.hearts, u.lastRefillAt,
		)
		if err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		logger.Info("heart refill sweep updated %d users", len(updates))
	}

	return nil
}
