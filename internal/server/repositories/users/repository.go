// Package users declares and implements persistence of player identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
)

// Repository maps player uuids to stable user IDs.
type Repository interface {
	// FindIDByUUID returns the user ID for uuid or common.ErrorNotFound.
	FindIDByUUID(ctx context.Context, uuid string) (uint64, error)

	// Create inserts a user for user.UUID and fills in ID and CreatedAt. If the
	// uuid already exists the existing row is returned.
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
