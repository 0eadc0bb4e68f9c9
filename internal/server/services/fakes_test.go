package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/dmitrijs2005/chestkeeper/internal/dbx"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/chests"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/verifiedtokens"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// ---- users ----

type fakeUsersRepo struct {
	mu        sync.Mutex
	byUUID    map[string]uint64
	nextID    uint64
	findErr   error
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byUUID: map[string]uint64{}, nextID: 1}
}

func (f *fakeUsersRepo) FindIDByUUID(ctx context.Context, uuid string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return 0, f.findErr
	}
	id, ok := f.byUUID[uuid]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = f.nextID
	f.nextID++
	f.byUUID[u.UUID] = u.ID
	return u, nil
}

// ---- verified tokens ----

type fakeVerifiedRepo struct {
	mu        sync.Mutex
	tokens    map[uint64]uint64
	lookups   int
	isErr     error
	upsertErr error
}

func newFakeVerifiedRepo() *fakeVerifiedRepo {
	return &fakeVerifiedRepo{tokens: map[uint64]uint64{}}
}

func (f *fakeVerifiedRepo) IsVerified(ctx context.Context, userID, value uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.isErr != nil {
		return false, f.isErr
	}
	v, ok := f.tokens[userID]
	return ok && v == value, nil
}

func (f *fakeVerifiedRepo) Upsert(ctx context.Context, userID, value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.tokens[userID] = value
	return nil
}

func (f *fakeVerifiedRepo) Lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// ---- chests ----

type fakeChestsRepo struct {
	created   []models.Chest
	createErr error
	listOut   []models.Chest
	listErr   error
}

func (f *fakeChestsRepo) Create(ctx context.Context, c *models.Chest) (*models.Chest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	c.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *c)
	return c, nil
}

func (f *fakeChestsRepo) ListByFinder(ctx context.Context, userID uint64) ([]models.Chest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

// ---- manager ----

type fakeRepoManager struct {
	u *fakeUsersRepo
	v *fakeVerifiedRepo
	c *fakeChestsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), v: newFakeVerifiedRepo(), c: &fakeChestsRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return m.u }
func (m *fakeRepoManager) VerifiedTokens(db dbx.DBTX) verifiedtokens.Repository {
	return m.v
}
func (m *fakeRepoManager) Chests(db dbx.DBTX) chests.Repository { return m.c }

// ---- authority ----

type fakeAuthority struct {
	mu        sync.Mutex
	confirm   bool
	err       error
	calls     int
	lastUser  string
	lastProof string
	entered   chan struct{}
	release   chan struct{}
	enterOnce sync.Once
}

func (f *fakeAuthority) Confirm(ctx context.Context, username, proof string) (bool, error) {
	f.mu.Lock()
	f.calls++
	f.lastUser = username
	f.lastProof = proof
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		f.enterOnce.Do(func() { close(entered) })
	}
	if release != nil {
		<-release
	}
	return f.confirm, f.err
}

func (f *fakeAuthority) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
