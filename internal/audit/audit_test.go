package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "realtyvest/pkg/domain"
	"realtyvest/pkg/requestcontext"
)

type AuditSuite struct {
	suite.Suite
	userID id.UserID
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.userID = id.UserID(uuid.New())
}

type failingSink struct{}

func (failingSink) Append(context.Context, Event) error { return errors.New("sink down") }

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (s *AuditSuite) TestPublisher() {
	s.Run("stamps request metadata", func() {
		p := NewPublisher(4)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)
		ctx = requestcontext.WithRequestID(ctx, "req-1")
		ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")

		p.Emit(ctx, Event{UserID: s.userID, Action: "submission", Status: "pending"})

		event := <-p.Events()
		s.Equal(now, event.Timestamp)
		s.Equal("req-1", event.RequestID)
		s.Contains(event.Device, "Firefox")
	})

	s.Run("drops when buffer is full", func() {
		p := NewPublisher(1)
		p.Emit(context.Background(), Event{UserID: s.userID, Action: "skip"})
		p.Emit(context.Background(), Event{UserID: s.userID, Action: "skip"})
		s.Equal(int64(1), p.Dropped())
		s.Len(p.Events(), 1)
	})

	s.Run("drops when context is done", func() {
		p := NewPublisher(4)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p.Emit(ctx, Event{UserID: s.userID, Action: "approval"})
		s.Equal(int64(1), p.Dropped())
		s.Empty(p.Events())
	})
}

func (s *AuditSuite) TestWorker() {
	s.Run("fans out to every sink despite failures", func() {
		p := NewPublisher(8)
		store := NewInMemoryStore()
		rec := &recordingSink{}
		w := NewWorker(p.Events(), nil, failingSink{}, store, rec)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		p.Emit(context.Background(), Event{UserID: s.userID, Action: "submission", Status: "pending"})
		p.Emit(context.Background(), Event{UserID: s.userID, Action: "approval", Status: "completed"})

		s.Eventually(func() bool { return rec.len() == 2 }, time.Second, 10*time.Millisecond)
		cancel()
		s.NoError(<-done)

		events, err := store.ListByUser(context.Background(), s.userID)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal("submission", events[0].Action)
		s.Equal("approval", events[1].Action)
	})

	s.Run("drains buffered events on shutdown", func() {
		p := NewPublisher(8)
		rec := &recordingSink{}
		p.Emit(context.Background(), Event{UserID: s.userID, Action: "skip"})
		p.Emit(context.Background(), Event{UserID: s.userID, Action: "status_change"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.NoError(NewWorker(p.Events(), nil, rec).Run(ctx))
		s.Equal(2, rec.len())
	})
}

func (s *AuditSuite) TestInMemoryStoreIsolatesUsers() {
	store := NewInMemoryStore()
	other := id.UserID(uuid.New())
	s.Require().NoError(store.Append(context.Background(), Event{UserID: s.userID, Action: "skip"}))
	s.Require().NoError(store.Append(context.Background(), Event{UserID: other, Action: "approval"}))

	events, err := store.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(events, 1)

	events[0].Action = "mutated"
	again, _ := store.ListByUser(context.Background(), s.userID)
	s.Equal("skip", again[0].Action)
}

func (s *AuditSuite) TestInMemoryStoreKeepsNewestEvents() {
	store := NewInMemoryStore(WithMaxEventsPerUser(3))
	for _, action := range []string{"a", "b", "c", "d", "e"} {
		s.Require().NoError(store.Append(context.Background(), Event{UserID: s.userID, Action: action}))
	}

	events, err := store.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal([]string{"c", "d", "e"}, []string{events[0].Action, events[1].Action, events[2].Action})
}
