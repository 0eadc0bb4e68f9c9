// Package chests persists chest sightings reported by authenticated players.
package chests

import (
	"context"

	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
)

// Repository stores chests and lists them by finder.
type Repository interface {
	// Create inserts chest and fills in its ID and CreatedAt.
	Create(ctx context.Context, chest *models.Chest) (*models.Chest, error)

	// ListByFinder returns the chests reported by userID, oldest first.
	ListByFinder(ctx context.Context, userID uint64) ([]models.Chest, error)
}
