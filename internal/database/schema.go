package database

import (
	"context"
	"fmt"
)

// InitSchema crée les tables si elles n'existent pas encore.
// Les contraintes d'unicité portent les garanties d'idempotence:
// campaign_attempts(campaign_id, attempt_id) et all_time_leaderboard(account_id).
func InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT 'default.png',
			bomb INT NOT NULL DEFAULT 0,
			laser INT NOT NULL DEFAULT 0,
			extra_shuffle INT NOT NULL DEFAULT 0,
			total_score INT NOT NULL DEFAULT 0,
			hearts INT NOT NULL DEFAULT 3,
			last_heart_refill_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			token TEXT NOT NULL UNIQUE,
			ip_address TEXT,
			user_agent TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS user_stage_progress (
			user_id UUID NOT NULL REFERENCES users(id),
			stage_key TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			points INT NOT NULL DEFAULT 0,
			used_power TEXT,
			last_completed_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, stage_key)
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_runs (
			campaign_id TEXT PRIMARY KEY,
			account_id TEXT,
			meta_tier INT NOT NULL DEFAULT 0,
			meta_version INT NOT NULL DEFAULT 1,
			wins_count INT NOT NULL DEFAULT 0,
			losses_count INT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			finished_at TIMESTAMPTZ,
			run_id TEXT,
			platform TEXT,
			client_version TEXT,
			client_timestamp_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_attempts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			campaign_id TEXT NOT NULL REFERENCES campaign_runs(campaign_id),
			attempt_id TEXT NOT NULL,
			account_id TEXT,
			level_index INT NOT NULL CHECK (level_index BETWEEN 1 AND 12),
			kind TEXT NOT NULL CHECK (kind IN ('END', 'ABORT')),
			outcome TEXT NOT NULL CHECK (outcome IN ('WIN', 'LOSS')),
			abort_reason TEXT,
			move_budget INT NOT NULL,
			moves_used_raw INT NOT NULL DEFAULT 0,
			moves_counted INT NOT NULL DEFAULT 0,
			ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
			client_timestamp_ms BIGINT,
			client_version TEXT,
			level_config_hash TEXT,
			platform TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (campaign_id, attempt_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaign_attempts_campaign_level
			ON campaign_attempts (campaign_id, level_index)`,
		`CREATE TABLE IF NOT EXISTS all_time_leaderboard (
			account_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT 'default.png',
			total_levels_played INT NOT NULL CHECK (total_levels_played >= 1),
			meta_tier INT NOT NULL CHECK (meta_tier >= 0),
			moves_metric BIGINT NOT NULL CHECK (moves_metric >= 0),
			finished_at TIMESTAMPTZ NOT NULL,
			run_id TEXT NOT NULL,
			display_score INT NOT NULL CHECK (display_score BETWEEN 0 AND 10000),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_all_time_leaderboard_rank_key
			ON all_time_leaderboard (total_levels_played, meta_tier, moves_metric, finished_at, run_id)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}

	return nil
}
