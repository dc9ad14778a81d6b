package checkin

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SunnyAureliusRichard/meditation-cogs/platform"
)

type fakeRecordStore struct {
	mu       sync.Mutex
	recorded map[string]bool
}

func key(userID int64, day time.Time) string {
	return fmt.Sprintf("%d/%s", userID, day.Format("2006-01-02"))
}

func (f *fakeRecordStore) Record(userID int64, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recorded == nil {
		f.recorded = map[string]bool{}
	}
	f.recorded[key(userID, day)] = true
	return nil
}

func (f *fakeRecordStore) Remove(userID int64, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recorded, key(userID, day))
	return nil
}

func (f *fakeRecordStore) has(userID int64, day time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recorded[key(userID, day)]
}

type fakeReverser struct {
	mu       sync.Mutex
	reversed int
}

func (f *fakeReverser) RemoveReaction(context.Context, string, string, string, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reversed++
	return nil
}

func (f *fakeReverser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reversed
}

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test")
	t.Setenv("ADMIN_SECRET", "test")
	t.Setenv("WEBHOOK_SECRET", "test")
}

func newTestProcessor(now time.Time) (*Processor, *fakeRecordStore, *fakeReverser) {
	store := &fakeRecordStore{}
	reverser := &fakeReverser{}
	p := NewProcessor(store, reverser, 8)
	p.now = func() time.Time { return now }
	return p, store, reverser
}

func event(userID int64, marker string, sentAt time.Time, removed bool) platform.ReactionEvent {
	return platform.ReactionEvent{
		ID:            uuid.New(),
		UserID:        userID,
		ChannelID:     "c1",
		MessageID:     "m1",
		Marker:        marker,
		Removed:       removed,
		MessageSentAt: sentAt,
		OccurredAt:    sentAt.Add(time.Minute),
	}
}

func TestProcessorRecordsCheckin(t *testing.T) {
	setTestEnv(t)
	sentAt := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	p, store, reverser := newTestProcessor(sentAt.Add(2 * time.Hour))

	p.handle(context.Background(), event(42, platform.Markers[0], sentAt, false))

	if !store.has(42, Day(sentAt)) {
		t.Error("expected a check-in recorded for the message's logical day")
	}
	if reverser.count() != 0 {
		t.Error("fresh reaction must not be reversed")
	}
}

func TestProcessorIgnoresForeignMarkers(t *testing.T) {
	setTestEnv(t)
	sentAt := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	p, store, _ := newTestProcessor(sentAt.Add(time.Hour))

	p.handle(context.Background(), event(42, "👍", sentAt, false))

	if store.has(42, Day(sentAt)) {
		t.Error("non check-in markers must be ignored")
	}
}

func TestProcessorReversesStaleReactions(t *testing.T) {
	setTestEnv(t)
	sentAt := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	p, store, reverser := newTestProcessor(sentAt.Add(staleAfter))

	p.handle(context.Background(), event(42, platform.Markers[1], sentAt, false))

	if store.has(42, Day(sentAt)) {
		t.Error("stale reaction must not be recorded")
	}
	if reverser.count() != 1 {
		t.Errorf("expected the stale reaction to be reversed once, got %d", reverser.count())
	}
}

func TestProcessorRemovesOnRetraction(t *testing.T) {
	setTestEnv(t)
	sentAt := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	p, store, _ := newTestProcessor(sentAt.Add(time.Hour))

	p.handle(context.Background(), event(42, platform.Markers[0], sentAt, false))
	p.handle(context.Background(), event(42, platform.Markers[0], sentAt, true))

	if store.has(42, Day(sentAt)) {
		t.Error("retraction must remove the record")
	}
}

// Removing a record that was never created is a no-op, not an error.
func TestProcessorRemoveAbsentIsNoop(t *testing.T) {
	setTestEnv(t)
	sentAt := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	p, store, _ := newTestProcessor(sentAt.Add(time.Hour))

	p.handle(context.Background(), event(7, platform.Markers[0], sentAt, true))

	if store.has(7, Day(sentAt)) {
		t.Error("nothing should be recorded by a retraction")
	}
}

func TestProcessorQueueBounded(t *testing.T) {
	setTestEnv(t)
	sentAt := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	store := &fakeRecordStore{}
	p := NewProcessor(store, &fakeReverser{}, 2)

	// Nothing is draining the queue, so the third enqueue must drop.
	if !p.Enqueue(event(1, platform.Markers[0], sentAt, false)) {
		t.Fatal("first enqueue should succeed")
	}
	if !p.Enqueue(event(2, platform.Markers[0], sentAt, false)) {
		t.Fatal("second enqueue should succeed")
	}
	if p.Enqueue(event(3, platform.Markers[0], sentAt, false)) {
		t.Error("enqueue past capacity must drop, not block")
	}
}
