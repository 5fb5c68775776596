package factory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/model"
)

// The mock clock never blocks, so these tests drive the services directly
// and never start polling or periodic save loops.
type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	_ = s.app.Close()
}

func (s *IntegrationSuite) registerInstance(id, instanceID string) *channels.Channel {
	ch := channels.NewChannel(id, channels.DefaultQueueSize)
	ch.SetInstanceID(instanceID)
	s.Require().True(s.app.Registry.Register(ch))
	return ch
}

func (s *IntegrationSuite) ingest(raw, instanceID string) {
	records, _ := s.app.Parser.Parse(raw, map[string]string{model.FieldInstanceID: instanceID})
	s.app.Players.Merge(records)
}

func (s *IntegrationSuite) nextOutbound(ch *channels.Channel) channels.Outbound {
	select {
	case msg := <-ch.Outbound():
		return msg
	case <-time.After(time.Second):
		s.FailNow("no outbound message")
		return channels.Outbound{}
	}
}

// Test: snapshot ingestion through chat commands and persistence
func (s *IntegrationSuite) TestSnapshotToChatCommandFlow() {
	ch := s.registerInstance("chan-1", "7")

	// Step 1: an instance reports two connected players
	s.ingest("name:alice,connected:true,onlineTime:30|name:bob,connected:true,onlineTime:5", "7")
	s.Len(s.app.Players.List(), 2)
	s.Equal(2, s.app.Players.ConnectedOn("7"))

	// Step 2: players online means the fast polling cadence
	s.Equal(s.app.Scheduler.Interval("7"), time.Second)

	// Step 3: a chat command is answered on the same instance
	s.app.Dispatcher.HandleChatLine(s.ctx, "2024-01-01 12:00:00 [CHAT] alice: !playermanager playtime", "7")
	reply := s.nextOutbound(ch)
	s.Equal(channels.TypeCommand, reply.Type)
	s.Contains(reply.Command, "alice has played for 30s")
	s.NotEmpty(reply.ID)

	// Step 4: alice disconnects and her session time is banked
	s.ingest("name:alice,connected:false,onlineTime:45", "7")
	alice, err := s.app.Players.Get("alice")
	s.Require().NoError(err)
	s.Equal(45.0, alice.OnlineTimeTotal)
	s.Equal("0", alice.Get(model.FieldOnlineTime))

	// A repeated disconnect report does not bank the time twice
	s.ingest("name:alice,connected:false,onlineTime:45", "7")
	alice, err = s.app.Players.Get("alice")
	s.Require().NoError(err)
	s.Equal(45.0, alice.OnlineTimeTotal)

	// Step 5: only bob is left online
	s.app.Dispatcher.HandleChatLine(s.ctx, "[CHAT] bob: !playermanager online", "7")
	s.Contains(s.nextOutbound(ch).Command, "1 player(s) online")

	// Step 6: the registry survives a save and reload
	s.Require().NoError(s.app.Store.Save(s.ctx))

	data, err := s.app.MemoryStore.Load(s.ctx, "playerManager.json")
	s.Require().NoError(err)

	var doc struct {
		ManagedPlayers []map[string]any `json:"managedPlayers"`
	}
	s.Require().NoError(json.Unmarshal(data, &doc))
	s.Len(doc.ManagedPlayers, 2)

	s.Require().NoError(s.app.Store.Load(s.ctx))
	alice, err = s.app.Players.Get("alice")
	s.Require().NoError(err)
	s.Equal(45.0, alice.OnlineTimeTotal)
	s.Equal("7", alice.InstanceID())
}

// Test: login, permission resolution and session expiry
func (s *IntegrationSuite) TestSessionLifecycle() {
	s.app.CreateUser("alice", "hunter22", false)
	s.app.CreateUser("root", "toor-toor", true)

	login, err := s.app.AuthService.Login(s.ctx, "alice", "hunter22")
	s.Require().NoError(err)

	// A plain user reads her own private fields but has no cluster actions
	perms := s.app.Permissions.Resolve(s.ctx, login.Token)
	s.Equal("alice", perms.Principal)
	s.True(perms.CanRead("alice", model.UserFieldEmail))
	s.False(perms.CanRead("root", model.UserFieldEmail))
	s.False(perms.HasCluster(model.ActionEditWhitelist))

	// An admin session grants everything
	adminLogin, err := s.app.AuthService.Login(s.ctx, "root", "toor-toor")
	s.Require().NoError(err)
	adminPerms := s.app.Permissions.Resolve(s.ctx, adminLogin.Token)
	s.True(adminPerms.HasCluster(model.ActionEditWhitelist))
	s.True(adminPerms.CanWrite("alice", model.UserFieldAdmin))

	// The master token resolves without any user
	master := s.app.Permissions.Resolve(s.ctx, TestMasterToken)
	s.Equal(model.PrincipalMaster, master.Principal)
	s.True(master.HasCluster(model.ActionRunCommand))

	// After the session lifetime the token is worthless and pruned
	s.app.MockClock.Advance(25 * time.Hour)
	expired := s.app.Permissions.Resolve(s.ctx, login.Token)
	s.False(expired.Authenticated())

	user, err := s.app.AuthService.GetUser("alice")
	s.Require().NoError(err)
	s.Empty(user.Sessions)
}

// Test: whitelist edits are persisted in the whitelist document
func (s *IntegrationSuite) TestWhitelistPersistence() {
	added, err := s.app.Store.Whitelist().Add("alice")
	s.Require().NoError(err)
	s.True(added)

	s.Require().NoError(s.app.Store.Save(s.ctx))

	data, err := s.app.MemoryStore.Load(s.ctx, "whitelist.json")
	s.Require().NoError(err)
	s.JSONEq(`{"whitelist":["alice"]}`, string(data))
}
