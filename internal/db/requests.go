package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateSourcingRequest stores an escalation ticket created when a search
// produced no matches.
func (db *DB) CreateSourcingRequest(ctx context.Context, id uuid.UUID, query map[string]interface{}, originalQuery, status string) error {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO sourcing_requests (id, query, original_query, status)
		 VALUES ($1, $2, $3, $4)`,
		id, queryJSON, originalQuery, status,
	)
	if err != nil {
		return fmt.Errorf("failed to create sourcing request: %w", err)
	}
	return nil
}

// UpdateSourcingRequestStatus moves a ticket through its lifecycle.
func (db *DB) UpdateSourcingRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE sourcing_requests SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update sourcing request: %w", err)
	}
	return nil
}

// GetSourcingRequest retrieves a ticket by ID. Returns nil when absent.
func (db *DB) GetSourcingRequest(ctx context.Context, id uuid.UUID) (*SourcingRequestRecord, error) {
	var rec SourcingRequestRecord
	var queryJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, query, original_query, status, created_at, updated_at
		 FROM sourcing_requests WHERE id = $1`,
		id,
	).Scan(&rec.ID, &queryJSON, &rec.OriginalQuery, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sourcing request: %w", err)
	}

	if queryJSON != nil {
		_ = json.Unmarshal(queryJSON, &rec.Query)
	}

	return &rec, nil
}

// ListSourcingRequests retrieves tickets, optionally filtered by status,
// newest first.
func (db *DB) ListSourcingRequests(ctx context.Context, status *string) ([]SourcingRequestRecord, error) {
	query := `SELECT id, query, original_query, status, created_at, updated_at
	          FROM sourcing_requests`
	args := []interface{}{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sourcing requests: %w", err)
	}
	defer rows.Close()

	var records []SourcingRequestRecord
	for rows.Next() {
		var rec SourcingRequestRecord
		var queryJSON []byte

		if err := rows.Scan(&rec.ID, &queryJSON, &rec.OriginalQuery, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if queryJSON != nil {
			_ = json.Unmarshal(queryJSON, &rec.Query)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
