package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ocppmeter/backend/services/meter-trace/internal/models"
)

// ChannelSampleRepository persists decoded channel values.
type ChannelSampleRepository struct {
	db *sql.DB
}

// NewChannelSampleRepository returns repository.
func NewChannelSampleRepository(db *sql.DB) *ChannelSampleRepository {
	return &ChannelSampleRepository{db: db}
}

// EnsureSchema creates the samples table when it does not exist yet.
func (r *ChannelSampleRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{`
		CREATE TABLE IF NOT EXISTS channel_samples (
			id          BIGSERIAL PRIMARY KEY,
			run_id      TEXT             NOT NULL,
			channel     TEXT             NOT NULL,
			value       DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ      NOT NULL,
			created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		)`, `
		CREATE INDEX IF NOT EXISTS channel_samples_channel_recorded_at_idx
			ON channel_samples (channel, recorded_at)`,
	}
	for _, query := range statements {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("repository: ensure schema: %w", err)
		}
	}
	return nil
}

// InsertRecord stores all samples of one record in a single transaction.
func (r *ChannelSampleRepository) InsertRecord(ctx context.Context, samples []models.ChannelSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: begin: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO channel_samples (run_id, channel, value, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("repository: prepare: %w", err)
	}
	defer stmt.Close()

	for i := range samples {
		s := &samples[i]
		if err := stmt.QueryRowContext(ctx, s.RunID, s.Channel, s.Value, s.RecordedAt).Scan(&s.ID, &s.CreatedAt); err != nil {
			return fmt.Errorf("repository: insert %s: %w", s.Channel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: commit: %w", err)
	}
	return nil
}
