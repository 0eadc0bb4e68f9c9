package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/chestkeeper/internal/dbx"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/chests"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/verifiedtokens"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// them against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	VerifiedTokens(db dbx.DBTX) verifiedtokens.Repository
	Chests(db dbx.DBTX) chests.Repository
}
