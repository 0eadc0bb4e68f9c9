package verifiedtokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chestkeeper/internal/dbx"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) IsVerified(ctx context.Context, userID, value uint64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM verified_tokens
			WHERE user_id = $1 AND token = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query,
		models.Int64FromUint64(userID), models.Int64FromUint64(value)).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID, value uint64) error {
	query := `
		INSERT INTO verified_tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET token = EXCLUDED.token, updated_at = now()
	`
	res, err := r.db.ExecContext(ctx, query, models.Int64FromUint64(userID), models.Int64FromUint64(value))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
