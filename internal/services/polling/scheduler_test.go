package polling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/dependencies/clock"
	"github.com/mcoot/playermanager/internal/dependencies/mocks"
	"github.com/mcoot/playermanager/internal/testutil"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (f *fakeCounter) ConnectedOn(instanceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[instanceID]
}

func (f *fakeCounter) set(instanceID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[instanceID] = n
}

type SchedulerSuite struct {
	suite.Suite
	registry  *channels.Registry
	counter   *fakeCounter
	clock     *mocks.MockClock
	scheduler *Scheduler
	ctx       context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.registry = channels.NewRegistry()
	s.counter = &fakeCounter{counts: make(map[string]int)}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.scheduler = New(s.registry, s.counter, s.clock, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func (s *SchedulerSuite) registered(instanceID string) *channels.Channel {
	ch := channels.NewChannel("ch-"+instanceID, 4)
	ch.SetInstanceID(instanceID)
	s.registry.Register(ch)
	return ch
}

func (s *SchedulerSuite) TestIntervalIsIdleWithoutPlayers() {
	s.Equal(10*time.Second, s.scheduler.Interval("1"))
}

func (s *SchedulerSuite) TestIntervalIsActiveWithConnectedPlayer() {
	s.counter.set("1", 2)
	s.Equal(time.Second, s.scheduler.Interval("1"))
	s.Equal(10*time.Second, s.scheduler.Interval("2"))
}

func (s *SchedulerSuite) TestIntervalWithoutInstanceIsIdle() {
	s.counter.set("", 1)
	s.Equal(10*time.Second, s.scheduler.Interval(""))
}

func (s *SchedulerSuite) TestPollSendsRequest() {
	ch := s.registered("1")

	interval, ok := s.scheduler.poll(ch, testutil.NopLogger())
	s.True(ok)
	s.Equal(10*time.Second, interval)

	msg := <-ch.Outbound()
	s.Equal(channels.TypeGetPlayers, msg.Type)
}

func (s *SchedulerSuite) TestPollStopsWhenUnregistered() {
	ch := channels.NewChannel("lonely", 4)

	_, ok := s.scheduler.poll(ch, testutil.NopLogger())
	s.False(ok)
	s.Empty(ch.Outbound())
}

func (s *SchedulerSuite) TestPollContinuesWhenQueueIsFull() {
	ch := channels.NewChannel("full", 1)
	s.registry.Register(ch)
	s.Require().NoError(ch.Send(channels.Outbound{Type: channels.TypeGetPlayers}))

	_, ok := s.scheduler.poll(ch, testutil.NopLogger())
	s.True(ok)
}

func (s *SchedulerSuite) TestRunStopsAfterUnregister() {
	ch := s.registered("1")
	s.counter.set("1", 1)
	s.scheduler.Start(s.ctx, ch)

	for i := 0; i < 3; i++ {
		msg := <-ch.Outbound()
		s.Equal(channels.TypeGetPlayers, msg.Type)
	}
	s.registry.Unregister(ch.ID())

	s.waitForScheduler()
	for _, d := range s.clock.Waits() {
		s.Equal(time.Second, d)
	}
}

func (s *SchedulerSuite) TestRunStopsWhenChannelCloses() {
	ch := s.registered("1")
	s.scheduler.Start(s.ctx, ch)

	<-ch.Outbound()
	ch.Close()

	s.waitForScheduler()
	for _, d := range s.clock.Waits() {
		s.Equal(10*time.Second, d)
	}
}

func (s *SchedulerSuite) TestRunStopsOnContextCancel() {
	ch := channels.NewChannel("ch", 4)
	s.registry.Register(ch)

	scheduler := New(s.registry, s.counter, clock.New(), testutil.NopLogger(), Config{
		ActiveInterval: time.Millisecond,
		IdleInterval:   time.Hour,
	})
	ctx, cancel := context.WithCancel(s.ctx)
	scheduler.Start(ctx, ch)

	<-ch.Outbound()
	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("scheduler did not stop")
	}
}

func (s *SchedulerSuite) waitForScheduler() {
	done := make(chan struct{})
	go func() {
		s.scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("scheduler did not stop")
	}
}
