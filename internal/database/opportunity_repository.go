// internal/database/opportunity_repository.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nest-hub/internal/listing"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// GetOpportunity looks a listing up by its generated id, not the document _id.
func (m *MongoDB) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := m.Opportunities.FindOne(ctx, bson.M{"id": id}).Decode(&opp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrOpportunityNotFound, "Opportunity not found: "+id, nil)
	}
	if err != nil {
		return nil, storeError("get opportunity", err)
	}
	return &opp, nil
}

func (m *MongoDB) ListOpportunities(ctx context.Context, q listing.Query) (listing.Result[models.Opportunity], error) {
	return findPage[models.Opportunity](ctx, m.Opportunities, q)
}

// UpsertOpportunity matches on title. The id and createdAt are only written on insert.
func (m *MongoDB) UpsertOpportunity(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error) {
	if err := opp.Validate(); err != nil {
		return nil, false, err
	}

	skills := opp.Skills
	if skills == nil {
		skills = []string{}
	}
	now := m.now()
	newID := uuid.NewString()

	update := bson.M{
		"$set": bson.M{
			"organizer":  opp.Organizer,
			"type":       opp.Type,
			"registered": opp.Registered,
			"days_left":  opp.DaysLeft,
			"skills":     skills,
			"image":      opp.Image,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"id":        newID,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Opportunity
	err := m.Opportunities.FindOneAndUpdate(ctx, bson.M{"title": opp.Title}, update, opts).Decode(&stored)
	if err != nil {
		return nil, false, storeError("upsert opportunity", err)
	}
	return &stored, stored.ID == newID, nil
}
