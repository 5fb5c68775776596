package factory

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/playermanager/internal/config"
	"github.com/mcoot/playermanager/internal/dependencies/mocks"
	"github.com/mcoot/playermanager/internal/services/auth"
	"github.com/mcoot/playermanager/internal/storage/memory"
	"github.com/mcoot/playermanager/internal/testutil"
)

// TestMasterToken is the master token of every TestApp
const TestMasterToken = "test-master-token"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MemoryStore *memory.Storage
}

// NewTestApp creates a loaded App on memory storage with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := config.Default()
	cfg.Database.Backend = config.BackendMemory
	cfg.Auth.MasterToken = TestMasterToken

	app := newWithDependencies(store, mockClock, mockRandom, cfg, auth.Config{
		SessionDuration: cfg.Auth.SessionDuration,
		BcryptCost:      bcrypt.MinCost,
	}, testutil.NopLogger())

	// Memory storage never fails to load
	_ = app.Store.Load(context.Background())

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MemoryStore: store,
	}
}

// CreateUser adds a user, failing loudly on error
func (t *TestApp) CreateUser(name, password string, admin bool) {
	_, err := t.AuthService.CreateUser(context.Background(), auth.CreateUserRequest{
		Name:     name,
		Password: password,
		Admin:    admin,
	})
	if err != nil {
		panic(err)
	}
}
