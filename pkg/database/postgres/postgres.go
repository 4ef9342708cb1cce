package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewClient(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Ping to verify connection using a short timeout context
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// RunMigrations creates the videos and feedback tables if they don't exist.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			status TEXT NOT NULL,
			action TEXT,
			confidence DOUBLE PRECISION,
			action_details JSONB,
			original_info JSONB,
			normalized_info JSONB,
			error TEXT,
			has_feedback BOOLEAN NOT NULL DEFAULT FALSE,
			feedback_action TEXT,
			feedback_comment TEXT,
			archive_object TEXT,
			thumbnail_object TEXT,
			upload_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			processed_time TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_upload_time ON videos (upload_time DESC)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id UUID PRIMARY KEY,
			video_id UUID NOT NULL REFERENCES videos(id),
			filename TEXT NOT NULL,
			original_action TEXT,
			correct_action TEXT NOT NULL,
			comment TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_video_id ON feedback (video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback (created_at)`,
	}

	for _, query := range queries {
		if _, err := pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	log.Println("Migrations executed successfully")
	return nil
}
