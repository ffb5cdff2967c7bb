package models

import (
	"slices"
	"strings"
	"time"

	"nest-hub/internal/utils"
)

// Opportunity is an externally listed competition or hackathon. Title is the
// identity used by the scraper; ID is generated once when the listing is first seen.
type Opportunity struct {
	ID         string    `json:"id" bson:"id"`
	Title      string    `json:"title" bson:"title"`
	Organizer  string    `json:"organizer" bson:"organizer"`
	Type       string    `json:"type" bson:"type"`
	Registered int       `json:"registered" bson:"registered"`
	DaysLeft   int       `json:"days_left" bson:"days_left"`
	Skills     []string  `json:"skills" bson:"skills"`
	Image      string    `json:"image" bson:"image"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (o *Opportunity) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return utils.NewValidationError("title is required")
	}
	return nil
}

func (o Opportunity) Clone() Opportunity {
	out := o
	out.Skills = slices.Clone(o.Skills)
	return out
}

func (o Opportunity) ListingField(name string) any {
	switch name {
	case "type":
		return o.Type
	case "skills":
		return o.Skills
	case "title":
		return o.Title
	case "organizer":
		return o.Organizer
	case "registered":
		return o.Registered
	case "days_left":
		return o.DaysLeft
	case "createdAt":
		return o.CreatedAt
	case "updatedAt":
		return o.UpdatedAt
	default:
		return nil
	}
}
