package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/dmitrijs2005/chestkeeper/internal/dbx"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindIDByUUID(ctx context.Context, uuid string) (uint64, error) {
	query :=
		`SELECT id FROM users
		 WHERE uuid = $1
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query, uuid).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return models.Uint64FromInt64(id), nil
}

// Create is idempotent on uuid: the no-op update makes RETURNING yield the
// existing row when two first requests for one player race.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (uuid)
		 VALUES ($1)
		 ON CONFLICT (uuid) DO UPDATE SET uuid = EXCLUDED.uuid
		 RETURNING id, created_at
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query, user.UUID).Scan(&id, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = models.Uint64FromInt64(id)
	return user, nil
}
