package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Interaction is one answered chatbot request. Input is stored redacted.
type Interaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId,omitempty"`
	Operation  string    `json:"operation"`
	Category   string    `json:"category,omitempty"`
	Source     string    `json:"source"`
	Input      string    `json:"input"`
	Response   string    `json:"response"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SaveInteraction inserts an interaction, assigning ID and CreatedAt when unset
func (db *DB) SaveInteraction(ctx context.Context, in *Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = db.now().UTC()
	}

	query := `
		INSERT INTO chatbot_interactions
			(id, user_id, operation, category, source, input, response, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := db.ExecContext(ctx, query,
		in.ID, in.UserID, in.Operation, in.Category, in.Source,
		in.Input, in.Response, in.Confidence, in.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save interaction: %w", err)
	}
	return nil
}

// GetRecentInteractions returns a user's most recent interactions, newest first
func (db *DB) GetRecentInteractions(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	query := `
		SELECT id, user_id, operation, category, source, input, response, confidence, created_at
		FROM chatbot_interactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get interactions: %w", err)
	}
	defer rows.Close()

	interactions := make([]Interaction, 0, limit)
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.Operation, &in.Category, &in.Source,
			&in.Input, &in.Response, &in.Confidence, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return interactions, nil
}

// GetInteraction returns a single interaction owned by userID
func (db *DB) GetInteraction(ctx context.Context, userID, id string) (*Interaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, user_id, operation, category, source, input, response, confidence, created_at
		FROM chatbot_interactions
		WHERE id = $1 AND user_id = $2
	`

	var in Interaction
	err := db.QueryRowContext(ctx, query, id, userID).Scan(&in.ID, &in.UserID, &in.Operation,
		&in.Category, &in.Source, &in.Input, &in.Response, &in.Confidence, &in.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}
	return &in, nil
}

// GetInteractionStats counts a user's interactions per operation
func (db *DB) GetInteractionStats(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT operation, COUNT(*)
		FROM chatbot_interactions
		WHERE user_id = $1
		GROUP BY operation
	`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interaction stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			op    string
			count int
		)
		if err := rows.Scan(&op, &count); err != nil {
			return nil, fmt.Errorf("failed to scan interaction stats: %w", err)
		}
		stats[op] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interaction stats: %w", err)
	}

	return stats, nil
}

// DeleteUserInteractions removes every interaction recorded for a user
func (db *DB) DeleteUserInteractions(ctx context.Context, userID string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM chatbot_interactions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete interactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted interactions: %w", err)
	}
	return n, nil
}
