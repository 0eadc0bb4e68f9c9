// Package services contains server-side business logic. This file implements
// TokenService, which issues possession tokens and verifies them, promoting a
// token confirmed by the identity authority into a persisted verified token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/dmitrijs2005/chestkeeper/internal/dbx"
	"github.com/dmitrijs2005/chestkeeper/internal/logging"
	"github.com/dmitrijs2005/chestkeeper/internal/server/auth"
	"github.com/dmitrijs2005/chestkeeper/internal/server/config"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// IdentityAuthority confirms that username recently authenticated using
// proof as its secret. An error means the authority could not be asked.
type IdentityAuthority interface {
	Confirm(ctx context.Context, username, proof string) (bool, error)
}

// TokenService implements the two-phase token protocol:
// - NewToken: issue an unverified token for a (uuid, username) pair
// - Authenticate: accept a verified token, or promote an unverified one
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       *auth.UnverifiedTokenCache
	authority   IdentityAuthority
	logger      logging.Logger
	flights     *singleflight.Group
}

// NewTokenService constructs a TokenService. When cfg.SerializeVerification
// is set, concurrent promotions of the same token share one authority call.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cache *auth.UnverifiedTokenCache,
	authority IdentityAuthority, logger logging.Logger, cfg *config.Config) *TokenService {
	s := &TokenService{
		db:          db,
		repomanager: m,
		cache:       cache,
		authority:   authority,
		logger:      logger.With("module", "token_service"),
	}
	if cfg.SerializeVerification {
		s.flights = &singleflight.Group{}
	}
	return s
}

// NewToken issues an unverified token for the player identified by
// playerUUID, creating the user row on first sight, and returns it encoded.
func (s *TokenService) NewToken(ctx context.Context, playerUUID, username string) (string, error) {
	id, err := uuid.Parse(playerUUID)
	if err != nil {
		return "", common.ErrorInvalidUUID
	}
	if !usernamePattern.MatchString(username) {
		return "", common.ErrorInvalidUsername
	}

	userID, err := s.findOrCreateUser(ctx, id.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	value, err := s.cache.Generate(userID, username)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err)
		return "", common.ErrorInternal
	}

	s.logger.Debug(ctx, "unverified token issued", "user_id", userID, "username", username)
	return auth.EncodeToken(userID, value), nil
}

// AuthenticateToken decodes raw and authenticates it. Malformed tokens are
// rejected with common.ErrForbidden.
func (s *TokenService) AuthenticateToken(ctx context.Context, raw string) (uint64, error) {
	userID, value, err := auth.DecodeToken(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrForbidden, err)
	}
	if err := s.Authenticate(ctx, userID, value, raw); err != nil {
		return 0, err
	}
	return userID, nil
}

// Authenticate accepts (userID, value) if it is the user's verified token.
// Otherwise it consumes the matching unverified token, asks the identity
// authority to confirm proof for the bound username and, on success, stores
// the token as verified.
//
// Failures wrap exactly one of common.ErrForbidden,
// common.ErrAuthorityUnavailable or common.ErrStorage. A consumed token is
// not restored when a later step fails.
func (s *TokenService) Authenticate(ctx context.Context, userID, value uint64, proof string) error {
	verified, err := s.repomanager.VerifiedTokens(s.db).IsVerified(ctx, userID, value)
	if err != nil {
		s.logger.Error(ctx, "verified token lookup failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if verified {
		return nil
	}

	if s.flights == nil {
		return s.promote(ctx, userID, value, proof)
	}

	key := fmt.Sprintf("%d:%d", userID, value)
	_, err, _ = s.flights.Do(key, func() (any, error) {
		return nil, s.promote(ctx, userID, value, proof)
	})
	return err
}

func (s *TokenService) promote(ctx context.Context, userID, value uint64, proof string) error {
	username, ok := s.cache.Verify(userID, value)
	if !ok {
		s.logger.Info(ctx, "unknown, expired or consumed token", "user_id", userID)
		return common.ErrForbidden
	}

	confirmed, err := s.authority.Confirm(ctx, username, proof)
	if err != nil {
		s.logger.Warn(ctx, "identity authority unavailable", "user_id", userID, "username", username, "error", err)
		return fmt.Errorf("%w: %v", common.ErrAuthorityUnavailable, err)
	}
	if !confirmed {
		s.logger.Info(ctx, "identity authority denied token", "user_id", userID, "username", username)
		return common.ErrForbidden
	}

	if err := s.repomanager.VerifiedTokens(s.db).Upsert(ctx, userID, value); err != nil {
		s.logger.Error(ctx, "verified token upsert failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	s.logger.Info(ctx, "token promoted", "user_id", userID, "username", username)
	return nil
}

func (s *TokenService) findOrCreateUser(ctx context.Context, playerUUID string) (uint64, error) {
	var userID uint64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		id, err := repo.FindIDByUUID(ctx, playerUUID)
		if err == nil {
			userID = id
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error searching user: %w", err)
		}

		u, err := repo.Create(ctx, &models.User{UUID: playerUUID})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		s.logger.Info(ctx, "user created", "user_id", u.ID, "uuid", playerUUID)
		userID = u.ID
		return nil
	})
	return userID, err
}
