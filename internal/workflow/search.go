package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/demandos/sourcing-agent/internal/catalog"
	"github.com/demandos/sourcing-agent/internal/db"
	"github.com/demandos/sourcing-agent/internal/matching"
	"github.com/demandos/sourcing-agent/internal/types"
)

// Searcher runs catalog searches for workflow steps and the search endpoint.
// Product and factory catalogs are fetched concurrently; when nothing clears
// the match threshold the query escalates to a sourcing request ticket.
type Searcher struct {
	Products  catalog.Provider
	Factories catalog.Provider
	DB        *db.DB // optional, persists escalation tickets
}

// Search fetches candidates and ranks them against the query. Candidate
// order is products first, then factories, preserving provider order so tie
// scores rank deterministically.
func (s *Searcher) Search(ctx context.Context, query *types.StructuredQuery) ([]types.MatchResult, error) {
	hint := catalog.FilterHint{}
	if query != nil {
		hint.Category = query.Category
	}

	var products, factories []types.Candidate

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.Products == nil {
			return nil
		}
		var err error
		products, err = s.Products.FetchCandidates(gCtx, hint)
		if err != nil {
			return fmt.Errorf("product catalog fetch failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if s.Factories == nil {
			return nil
		}
		var err error
		factories, err = s.Factories.FetchCandidates(gCtx, hint)
		if err != nil {
			return fmt.Errorf("factory catalog fetch failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]types.Candidate, 0, len(products)+len(factories))
	candidates = append(candidates, products...)
	candidates = append(candidates, factories...)

	return matching.Search(query, candidates)
}

// SearchOrEscalate searches, and when no candidate clears the threshold,
// opens a sourcing request ticket so a human buyer can take over. Returns the
// matches and, on escalation, the ticket.
func (s *Searcher) SearchOrEscalate(ctx context.Context, query *types.StructuredQuery) ([]types.MatchResult, *types.SourcingRequest, error) {
	matches, err := s.Search(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) > 0 {
		return matches, nil, nil
	}

	request := s.newSourcingRequest(query)
	if s.DB != nil {
		id, perr := uuid.Parse(request.ID)
		if perr == nil {
			_ = s.DB.CreateSourcingRequest(ctx, id, queryAsMap(query), request.OriginalQuery, string(request.Status))
		}
	}

	return matches, request, nil
}

func (s *Searcher) newSourcingRequest(query *types.StructuredQuery) *types.SourcingRequest {
	now := time.Now()
	request := &types.SourcingRequest{
		ID:                    uuid.NewString(),
		Status:                types.SourcingPending,
		Priority:              "normal",
		EstimatedResponseTime: 24,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if query != nil {
		request.OriginalQuery = query.OriginalQuery
		request.ParsedRequirements = *query
	}
	return request
}

func queryAsMap(query *types.StructuredQuery) map[string]interface{} {
	if query == nil {
		return nil
	}
	data, err := json.Marshal(query)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
