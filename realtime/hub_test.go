package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"course-chat/domain"
	"course-chat/domain/event"
)

const (
	alice = domain.UserID("7b6bde39-07e0-41aa-9b56-6b44f5d66a31")
	bob   = domain.UserID("0a3cbf48-61c9-48a7-8f0b-f0d1a77dcf6e")
	clara = domain.UserID("d7c99538-17a2-42c1-bf2d-5b3e26a66cba")
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
	fail   bool
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	if s.fail {
		return fmt.Errorf("sink unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) received() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent{}, s.events...)
}

func testMessage(sender, receiver domain.UserID) domain.Message {
	now := time.Now().UTC()
	return domain.Message{
		ID:         domain.NewMessageID(now),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "payload",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestHub_PublishMessage_BothParticipants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	hub := NewHub(slog.Default(), registry)

	aliceSink := &recordingSink{}
	bobDevice1 := &recordingSink{}
	bobDevice2 := &recordingSink{}
	claraSink := &recordingSink{}
	registry.Attach(alice, aliceSink)
	registry.Attach(bob, bobDevice1)
	registry.Attach(bob, bobDevice2)
	registry.Attach(clara, claraSink)

	hub.PublishMessage(context.Background(), testMessage(alice, bob))

	// Sender's session and both of the receiver's devices get exactly one
	// event each; an uninvolved user gets nothing.
	req.Len(aliceSink.received(), 1)
	req.Len(bobDevice1.received(), 1)
	req.Len(bobDevice2.received(), 1)
	req.Empty(claraSink.received())
}

func TestHub_PublishMessage_DisconnectedSessionMissesOut(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	hub := NewHub(slog.Default(), registry)

	stays := &recordingSink{}
	leaves := &recordingSink{}
	registry.Attach(bob, stays)
	registry.Attach(bob, leaves)
	registry.Detach(leaves)

	hub.PublishMessage(context.Background(), testMessage(alice, bob))

	req.Len(stays.received(), 1)
	req.Empty(leaves.received())
}

func TestHub_PublishMessage_SelfSendDeliversOncePerSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	hub := NewHub(slog.Default(), registry)

	sink := &recordingSink{}
	registry.Attach(alice, sink)

	hub.PublishMessage(context.Background(), testMessage(alice, alice))

	req.Len(sink.received(), 1)
}

func TestHub_PublishMessage_NoSessionsIsANoOp(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(slog.Default(), registry)

	// Nothing to assert beyond "does not panic": publish with an empty
	// registry must be silently absorbed.
	hub.PublishMessage(context.Background(), testMessage(alice, bob))
}

func TestHub_PublishMessage_SinkFailureIsAbsorbed(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	hub := NewHub(slog.Default(), registry)

	broken := &recordingSink{fail: true}
	healthy := &recordingSink{}
	registry.Attach(alice, broken)
	registry.Attach(bob, healthy)

	hub.PublishMessage(context.Background(), testMessage(alice, bob))

	req.Len(healthy.received(), 1)
}

func TestHub_PublishPresence_ReachesAnonymousSessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	hub := NewHub(slog.Default(), registry)

	authenticated := &recordingSink{}
	anonymous := &recordingSink{}
	registry.Attach(bob, authenticated)
	registry.Attach("", anonymous)

	hub.PublishPresence(context.Background(), alice, true)

	req.Len(authenticated.received(), 1)
	req.Len(anonymous.received(), 1)
	evt, ok := anonymous.received()[0].(event.PresenceChanged)
	req.True(ok)
	req.Equal(alice, evt.UserID)
	req.True(evt.Online)

	// The anonymous session never joins an address, so messages skip it.
	hub.PublishMessage(context.Background(), testMessage(alice, bob))
	req.Len(anonymous.received(), 1)
}

func TestRegistry_ConcurrentAttachDetach(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink := &recordingSink{}
				registry.Attach(bob, sink)
				_ = registry.SinksFor(bob)
				_ = registry.AllSinks()
				registry.Detach(sink)
			}
		}()
	}
	wg.Wait()

	req.Empty(registry.SinksFor(bob))
	req.Empty(registry.AllSinks())
}
