package checkin

import (
	"context"
	"time"

	"github.com/SunnyAureliusRichard/meditation-cogs/platform"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

// Reactions on messages at least this old no longer count; the triggering
// reaction is reversed instead of recorded.
const staleAfter = 72 * time.Hour

type recordStore interface {
	Record(userID int64, day time.Time) error
	Remove(userID int64, day time.Time) error
}

type reactionReverser interface {
	RemoveReaction(ctx context.Context, channelID, messageID, marker string, userID int64) error
}

// Processor serializes record-store mutations: reaction events from the
// webhook go into a bounded queue consumed by a single goroutine, so no
// per-record locking is needed anywhere else.
type Processor struct {
	store    recordStore
	reverser reactionReverser
	queue    chan platform.ReactionEvent
	now      func() time.Time
}

// NewProcessor creates a processor with a queue of the given capacity.
func NewProcessor(store recordStore, reverser reactionReverser, capacity int) *Processor {
	if capacity <= 0 {
		capacity = 256
	}
	return &Processor{
		store:    store,
		reverser: reverser,
		queue:    make(chan platform.ReactionEvent, capacity),
		now:      time.Now,
	}
}

// Enqueue hands an event to the processor without blocking. A full queue
// drops the event; the webhook must never stall on store latency.
func (p *Processor) Enqueue(ev platform.ReactionEvent) bool {
	select {
	case p.queue <- ev:
		return true
	default:
		utils.Sugar.Warnw("reaction queue full, dropping event",
			"event_id", ev.ID, "user_id", ev.UserID)
		return false
	}
}

// Run consumes the queue until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.queue:
			p.handle(ctx, ev)
		}
	}
}

func (p *Processor) handle(ctx context.Context, ev platform.ReactionEvent) {
	if !platform.IsMarker(ev.Marker) {
		return
	}

	day := Day(ev.MessageSentAt)

	if ev.Removed {
		if err := p.store.Remove(ev.UserID, day); err != nil {
			utils.Sugar.Errorw("remove check-in failed",
				"event_id", ev.ID, "user_id", ev.UserID, "day", day.Format("2006-01-02"), "err", err)
			return
		}
		InvalidateLeaderboard()
		return
	}

	// Reactions on old prompts are rejected and reversed so the prompt does
	// not silently accumulate backdated check-ins.
	if age := p.now().Sub(ev.MessageSentAt); age >= staleAfter {
		utils.Sugar.Infow("rejecting reaction on stale message",
			"event_id", ev.ID, "user_id", ev.UserID, "message_id", ev.MessageID, "age", age)
		if err := p.reverser.RemoveReaction(ctx, ev.ChannelID, ev.MessageID, ev.Marker, ev.UserID); err != nil {
			utils.Sugar.Warnw("failed to reverse stale reaction",
				"event_id", ev.ID, "user_id", ev.UserID, "err", err)
		}
		return
	}

	if err := p.store.Record(ev.UserID, day); err != nil {
		utils.Sugar.Errorw("record check-in failed",
			"event_id", ev.ID, "user_id", ev.UserID, "day", day.Format("2006-01-02"), "err", err)
		return
	}
	InvalidateLeaderboard()
}
