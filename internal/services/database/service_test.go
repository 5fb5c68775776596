package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playermanager/internal/dependencies/clock"
	"github.com/mcoot/playermanager/internal/dependencies/mocks"
	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/storage/file"
	"github.com/mcoot/playermanager/internal/storage/memory"
	"github.com/mcoot/playermanager/internal/testutil"
)

type StoreSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	store   *Store
	ctx     context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.store = New(s.storage, s.clock, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func (s *StoreSuite) put(path, content string) {
	s.Require().NoError(s.storage.Save(s.ctx, path, []byte(content)))
}

// Load tests

func (s *StoreSuite) TestLoadMissingDocumentsStartsEmpty() {
	s.Require().NoError(s.store.Load(s.ctx))

	s.Empty(s.store.Players())
	s.Empty(s.store.Users())
	s.Empty(s.store.Whitelist().List())
	s.Empty(s.store.Banlist().List())
}

func (s *StoreSuite) TestLoadCorruptDocumentStartsEmpty() {
	s.put("playerManager.json", "{not json")
	s.put("whitelist.json", `{"whitelist":["Alice"]}`)

	s.Require().NoError(s.store.Load(s.ctx))

	s.Empty(s.store.Players())
	s.Equal([]string{"Alice"}, s.store.Whitelist().List())
}

func (s *StoreSuite) TestLoadKeepsFieldsAroundTypeMismatch() {
	logger, buf := testutil.NewCaptureLogger()
	store := New(s.storage, s.clock, logger, DefaultConfig())
	s.put("playerManager.json", `{
		"managedPlayers": [{"name":"Alice","connected":"false"}],
		"users": [{"name":"admin","password":"hash","sessions":[{"token":"t1","expiryDate":"2024-01-01T00:00:00Z"}]}]
	}`)

	s.Require().NoError(store.Load(s.ctx))

	s.Len(store.Players(), 1)
	users := store.Users()
	s.Require().Len(users, 1)
	s.Equal("admin", users[0].Name)
	s.Require().Len(users[0].Sessions, 1)
	s.Equal(int64(0), users[0].Sessions[0].ExpiryDate)
	s.Contains(buf.String(), "keeping the rest")
	s.NotContains(buf.String(), "document is corrupt")
}

func (s *StoreSuite) TestLoadReadsAllDocuments() {
	s.put("playerManager.json", `{
		"managedPlayers": [{"name":"Alice","connected":"true","onlineTime":120,"onlineTimeTotal":30}],
		"users": [{"name":"admin","password":"hash","admin":"true","sessions":[{"token":"t1","expiryDate":1700000000000}]}]
	}`)
	s.put("whitelist.json", `{"whitelist":["Alice","Bob"]}`)
	s.put("banlist.json", `{"banlist":["Griefer"]}`)

	s.Require().NoError(s.store.Load(s.ctx))

	players := s.store.Players()
	s.Require().Len(players, 1)
	s.Equal("Alice", players[0].Name)
	s.Equal("true", players[0].Get(model.FieldConnected))
	s.Equal("120", players[0].Get(model.FieldOnlineTime))
	s.Equal(30.0, players[0].OnlineTimeTotal)

	users := s.store.Users()
	s.Require().Len(users, 1)
	s.True(bool(users[0].Admin))
	s.Require().Len(users[0].Sessions, 1)
	s.Equal("t1", users[0].Sessions[0].Token)

	s.Equal([]string{"Alice", "Bob"}, s.store.Whitelist().List())
	s.Equal([]string{"Griefer"}, s.store.Banlist().List())
}

func (s *StoreSuite) TestLoadDropsNamelessPlayers() {
	s.put("playerManager.json", `{"managedPlayers":[{"connected":"true"},{"name":"Alice"}],"users":[]}`)

	s.Require().NoError(s.store.Load(s.ctx))

	players := s.store.Players()
	s.Require().Len(players, 1)
	s.Equal("Alice", players[0].Name)
}

// Save tests

func (s *StoreSuite) TestSaveBeforeLoadFails() {
	err := s.store.Save(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrNoRecordSet))

	var perr *PersistenceError
	s.Require().True(errors.As(err, &perr))
}

func (s *StoreSuite) TestSaveWithoutPathFails() {
	cfg := DefaultConfig()
	cfg.BanlistPath = ""
	store := New(s.storage, s.clock, testutil.NopLogger(), cfg)
	s.Require().NoError(store.Load(s.ctx))

	err := store.Save(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrNoPath))
}

func (s *StoreSuite) TestSaveBackendFailureIsPersistenceError() {
	s.Require().NoError(s.store.Load(s.ctx))
	s.storage.SetSaveErr(errors.New("disk full"))

	err := s.store.Save(s.ctx)
	var perr *PersistenceError
	s.Require().True(errors.As(err, &perr))
	s.Contains(perr.Error(), "disk full")
}

func (s *StoreSuite) TestSaveWritesIndentedDocuments() {
	s.Require().NoError(s.store.Load(s.ctx))
	s.store.UpdatePlayers(func(players []*model.ManagedPlayer) []*model.ManagedPlayer {
		p := model.NewManagedPlayer("Alice")
		p.Set(model.FieldConnected, "true")
		return append(players, p)
	})
	_, err := s.store.Whitelist().Add("Alice")
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(s.ctx))

	data, err := s.storage.Load(s.ctx, "playerManager.json")
	s.Require().NoError(err)
	s.True(strings.Contains(string(data), "\n    \"managedPlayers\""))

	var doc struct {
		ManagedPlayers []map[string]any `json:"managedPlayers"`
		Users          []any            `json:"users"`
	}
	s.Require().NoError(json.Unmarshal(data, &doc))
	s.Require().Len(doc.ManagedPlayers, 1)
	s.Equal("Alice", doc.ManagedPlayers[0]["name"])
	s.Equal(0.0, doc.ManagedPlayers[0]["onlineTimeTotal"])
	s.NotNil(doc.Users)

	wl, err := s.storage.Load(s.ctx, "whitelist.json")
	s.Require().NoError(err)
	s.JSONEq(`{"whitelist":["Alice"]}`, string(wl))

	bl, err := s.storage.Load(s.ctx, "banlist.json")
	s.Require().NoError(err)
	s.JSONEq(`{"banlist":[]}`, string(bl))
}

func (s *StoreSuite) TestSaveThenLoadRecoversState() {
	s.Require().NoError(s.store.Load(s.ctx))
	s.store.UpdateUsers(func(users []*model.User) []*model.User {
		return append(users, &model.User{
			Name:     "admin",
			Password: "hash",
			Admin:    true,
			Sessions: []model.Session{{Token: "abc", ExpiryDate: 1}},
		})
	})
	_, err := s.store.Banlist().Add("Griefer")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx))

	reloaded := New(s.storage, s.clock, testutil.NopLogger(), DefaultConfig())
	s.Require().NoError(reloaded.Load(s.ctx))

	users := reloaded.Users()
	s.Require().Len(users, 1)
	s.Equal("admin", users[0].Name)
	s.True(bool(users[0].Admin))
	s.Equal([]string{"Griefer"}, reloaded.Banlist().List())
}

func (s *StoreSuite) TestAccessorsReturnCopies() {
	s.Require().NoError(s.store.Load(s.ctx))
	s.store.UpdatePlayers(func(players []*model.ManagedPlayer) []*model.ManagedPlayer {
		return append(players, model.NewManagedPlayer("Alice"))
	})

	players := s.store.Players()
	players[0].Set(model.FieldConnected, "true")

	s.Equal("", s.store.Players()[0].Get(model.FieldConnected))
}

// Shutdown tests

func (s *StoreSuite) TestShutdownSaves() {
	s.Require().NoError(s.store.Load(s.ctx))
	s.Require().NoError(s.store.Shutdown(s.ctx))
	s.Len(s.storage.Paths(), 3)
}

func (s *StoreSuite) TestShutdownGivesUpAtDeadline() {
	backend := &stuckStorage{release: make(chan struct{})}
	defer close(backend.release)

	store := New(backend, s.clock, testutil.NopLogger(), Config{
		PlayersPath:     "playerManager.json",
		WhitelistPath:   "whitelist.json",
		BanlistPath:     "banlist.json",
		ShutdownTimeout: 50 * time.Millisecond,
	})
	s.Require().NoError(store.Load(s.ctx))

	start := time.Now()
	err := store.Shutdown(s.ctx)

	s.Less(time.Since(start), time.Second)
	s.ErrorIs(err, context.DeadlineExceeded)
	var perr *PersistenceError
	s.ErrorAs(err, &perr)
}

func (s *StoreSuite) TestShutdownReturnsLastError() {
	s.Require().NoError(s.store.Load(s.ctx))
	s.storage.SetSaveErr(errors.New("read-only filesystem"))

	err := s.store.Shutdown(s.ctx)
	s.Require().Error(err)
	s.Contains(err.Error(), "read-only filesystem")
}

// Run tests

func (s *StoreSuite) TestRunContinuesAfterFailedSave() {
	store := New(s.storage, clock.New(), testutil.NopLogger(), Config{
		PlayersPath:   "playerManager.json",
		WhitelistPath: "whitelist.json",
		BanlistPath:   "banlist.json",
		SaveInterval:  5 * time.Millisecond,
	})
	s.Require().NoError(store.Load(s.ctx))
	s.storage.SetSaveErr(errors.New("temporarily unavailable"))

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Empty(s.storage.Paths())
	s.storage.SetSaveErr(nil)

	s.Eventually(func() bool {
		return len(s.storage.Paths()) == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Run did not stop after cancel")
	}
}

// NameList tests

func (s *StoreSuite) TestNameListAddIsIdempotent() {
	list := s.store.Whitelist()

	added, err := list.Add("Alice")
	s.Require().NoError(err)
	s.True(added)

	added, err = list.Add(" Alice ")
	s.Require().NoError(err)
	s.False(added)
	s.Equal([]string{"Alice"}, list.List())
}

func (s *StoreSuite) TestNameListRejectsEmptyName() {
	_, err := s.store.Banlist().Add("  ")
	s.ErrorIs(err, model.ErrInvalidName)
}

func (s *StoreSuite) TestNameListRemove() {
	list := s.store.Banlist()
	_, _ = list.Add("A")
	_, _ = list.Add("B")
	_, _ = list.Add("C")

	s.Require().NoError(list.Remove("B"))
	s.Equal([]string{"A", "C"}, list.List())
	s.False(list.Contains("B"))
	s.ErrorIs(list.Remove("B"), model.ErrNameNotListed)
}

// File backend round trip

func TestStoreWithFileBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cfg := DefaultConfig()

	store := New(file.New(dir), clock.New(), testutil.NopLogger(), cfg)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := store.Whitelist().Add("Alice"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, cfg.WhitelistPath))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "{\n    \"whitelist\": [\n        \"Alice\"\n    ]\n}\n"
	if string(data) != want {
		t.Fatalf("unexpected whitelist file:\n%s", data)
	}
}

// stuckStorage never finishes a save until released, whatever ctx says
type stuckStorage struct {
	release chan struct{}
}

func (b *stuckStorage) Load(ctx context.Context, path string) ([]byte, error) {
	return nil, model.ErrDocumentNotFound
}

func (b *stuckStorage) Save(ctx context.Context, path string, data []byte) error {
	<-b.release
	return nil
}
