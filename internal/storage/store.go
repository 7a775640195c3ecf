// Package storage is the read-only data collaborator of the engine:
// equipment, schedules and news events, filtered by country, category
// and date range. The engine never writes through this interface.
package storage

import (
	"context"
	"strings"
	"time"

	"supplyguard/internal/models"
)

// Filter narrows a read. Zero values mean "no constraint".
type Filter struct {
	Country  string
	Category string
	Since    time.Time
	Until    time.Time
	Limit    int
}

type Store interface {
	Equipment(ctx context.Context, f Filter) ([]models.Equipment, error)
	Schedules(ctx context.Context, f Filter) ([]models.Schedule, error)
	NewsEvents(ctx context.Context, f Filter) ([]models.NewsEvent, error)
}

// matchesEquipment applies a filter in memory. Shared by the in-memory
// store and the ES result post-filter.
func matchesEquipment(eq models.Equipment, f Filter) bool {
	if f.Country != "" &&
		!strings.EqualFold(eq.ManufacturingCountry, f.Country) &&
		!strings.EqualFold(eq.DestinationCountry, f.Country) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(eq.Category, f.Category) {
		return false
	}
	return true
}

func matchesNews(ev models.NewsEvent, f Filter) bool {
	if f.Country != "" && !strings.EqualFold(ev.Country, f.Country) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(ev.Category, f.Category) {
		return false
	}
	if !f.Since.IsZero() && ev.PublishedDate.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && ev.PublishedDate.After(f.Until) {
		return false
	}
	return true
}
