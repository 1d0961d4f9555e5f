package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demandos/sourcing-agent/internal/types"
)

// PostgresProvider reads candidates from the products table.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider wraps an existing connection pool.
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// FetchCandidates returns candidates matching the hint, ordered by insertion.
func (p *PostgresProvider) FetchCandidates(ctx context.Context, hint FilterHint) ([]types.Candidate, error) {
	query := `SELECT id, name, category, description, keywords, price, moq,
	                 supplier_id, supplier_name, supplier_rating, supplier_response_hours,
	                 supports_dropshipping, certifications, delivery_time, tags
	          FROM products`
	args := []any{}
	if hint.Category != "" {
		query += " WHERE category = $1"
		args = append(args, hint.Category)
	}
	query += " ORDER BY created_at"
	if hint.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", hint.Limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	defer rows.Close()

	var candidates []types.Candidate
	for rows.Next() {
		var c types.Candidate
		var keywordsJSON, certsJSON, tagsJSON []byte

		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Description, &keywordsJSON,
			&c.Price, &c.MOQ, &c.Supplier.ID, &c.Supplier.Name, &c.Supplier.Rating,
			&c.Supplier.ResponseTimeHours, &c.SupportsDropshipping, &certsJSON,
			&c.DeliveryTime, &tagsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}

		if keywordsJSON != nil {
			_ = json.Unmarshal(keywordsJSON, &c.Keywords)
		}
		if certsJSON != nil {
			_ = json.Unmarshal(certsJSON, &c.Certifications)
		}
		if tagsJSON != nil {
			_ = json.Unmarshal(tagsJSON, &c.Tags)
		}

		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	return candidates, nil
}
