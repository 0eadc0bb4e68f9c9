package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/dmitrijs2005/chestkeeper/internal/logging"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/repomanager"
)

// ChestView is a chest with its position unpacked.
type ChestView struct {
	ID       int64           `json:"id"`
	Position models.Position `json:"position"`
	Level    int16           `json:"level"`
}

// ChestService records and lists chests found by authenticated players.
type ChestService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewChestService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ChestService {
	return &ChestService{db: db, repomanager: m, logger: logger.With("module", "chest_service")}
}

// AddChest stores a chest at pos found by userID. Positions outside the
// packable range are rejected with common.ErrorInvalidPosition.
func (s *ChestService) AddChest(ctx context.Context, userID uint64, pos models.Position, level int16) (*ChestView, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}

	chest, err := s.repomanager.Chests(s.db).Create(ctx, &models.Chest{
		Position: pos.Pack(),
		Level:    level,
		FoundBy:  userID,
	})
	if err != nil {
		s.logger.Error(ctx, "chest insert failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return &ChestView{ID: chest.ID, Position: pos, Level: chest.Level}, nil
}

// ListChests returns the chests found by userID.
func (s *ChestService) ListChests(ctx context.Context, userID uint64) ([]ChestView, error) {
	list, err := s.repomanager.Chests(s.db).ListByFinder(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "chest list failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	views := make([]ChestView, 0, len(list))
	for _, c := range list {
		views = append(views, ChestView{ID: c.ID, Position: models.UnpackPosition(c.Position), Level: c.Level})
	}
	return views, nil
}
