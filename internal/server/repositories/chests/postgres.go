package chests

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chestkeeper/internal/dbx"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
)

// PostgresRepository implements chest storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, chest *models.Chest) (*models.Chest, error) {
	query := `
		INSERT INTO chests (position, lv, found_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		chest.Position, chest.Level, models.Int64FromUint64(chest.FoundBy)).Scan(&chest.ID, &chest.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return chest, nil
}

func (r *PostgresRepository) ListByFinder(ctx context.Context, userID uint64) ([]models.Chest, error) {
	query := `
		SELECT id, position, lv, created_at
		FROM chests
		WHERE found_by = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, models.Int64FromUint64(userID))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Chest, 0)
	for rows.Next() {
		c := models.Chest{FoundBy: userID}
		if err := rows.Scan(&c.ID, &c.Position, &c.Level, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
