package engine

import (
	"context"

	"nest-hub/internal/listing"
	"nest-hub/internal/models"
)

func (e *Engine) GetOpportunity(ctx context.Context, id string) (_ *models.Opportunity, err error) {
	defer e.observe("get_opportunity", e.clock.Now(), &err)
	return e.store.GetOpportunity(ctx, id)
}

func (e *Engine) ListOpportunities(ctx context.Context, q listing.Query) (_ listing.Result[models.Opportunity], err error) {
	defer e.observe("list_opportunities", e.clock.Now(), &err)
	return e.store.ListOpportunities(ctx, q)
}

// UpsertOpportunity inserts or refreshes a listing keyed by its title.
// The external id is assigned once, on insert.
func (e *Engine) UpsertOpportunity(ctx context.Context, opp *models.Opportunity) (_ *models.Opportunity, created bool, err error) {
	defer e.observe("upsert_opportunity", e.clock.Now(), &err)
	return e.store.UpsertOpportunity(ctx, opp)
}
