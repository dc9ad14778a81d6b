package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SunnyAureliusRichard/meditation-cogs/checkin"
	"github.com/SunnyAureliusRichard/meditation-cogs/platform"
)

type fakeSettings struct {
	mu sync.Mutex
	st checkin.BotState
}

func (f *fakeSettings) State() checkin.BotState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeSettings) SetWasFirstPost(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.WasFirstPost = v
	return nil
}

func (f *fakeSettings) MarkPosted(now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := now.UTC()
	f.st.LastPostTime = &t
	return nil
}

type fakeMessenger struct {
	mu        sync.Mutex
	sends     int
	reactions []string
	sendErr   error
}

func (f *fakeMessenger) Send(_ context.Context, channelID, text string) (platform.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return platform.Message{}, f.sendErr
	}
	f.sends++
	return platform.Message{ID: "m1", ChannelID: channelID, SentAt: time.Now().UTC()}, nil
}

func (f *fakeMessenger) AddReaction(_ context.Context, _ platform.Message, marker string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, marker)
	return nil
}

func (f *fakeMessenger) RemoveReaction(context.Context, string, string, string, int64) error {
	return nil
}

func (f *fakeMessenger) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

type allowAll struct{}

func (allowAll) AllowAttempt(time.Time) bool { return true }

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 20, hour, minute, 0, 0, time.UTC)
}

func newTestScheduler(st checkin.BotState, now time.Time, limiter AttemptLimiter) (*Scheduler, *fakeSettings, *fakeMessenger) {
	settings := &fakeSettings{st: st}
	messenger := &fakeMessenger{}
	if limiter == nil {
		limiter = allowAll{}
	}
	s := New(settings, messenger, limiter)
	s.now = func() time.Time { return now }
	return s, settings, messenger
}

func ptr(t time.Time) *time.Time { return &t }

func TestFirstTickAlwaysPosts(t *testing.T) {
	s, settings, messenger := newTestScheduler(
		checkin.BotState{ChannelID: "c1", DailyMessage: "hello"},
		at(13, 7), nil)

	s.Tick(context.Background())

	if messenger.sendCount() != 1 {
		t.Fatalf("expected 1 send, got %d", messenger.sendCount())
	}
	st := settings.State()
	if !st.WasFirstPost {
		t.Error("expected WasFirstPost to be set after the first ever post")
	}
	if st.LastPostTime == nil || !st.LastPostTime.Equal(at(13, 7)) {
		t.Errorf("expected LastPostTime %v, got %v", at(13, 7), st.LastPostTime)
	}
	if len(messenger.reactions) != len(platform.Markers) {
		t.Errorf("expected %d reactions attached, got %d", len(platform.Markers), len(messenger.reactions))
	}
}

func TestNoChannelConfiguredSkips(t *testing.T) {
	s, settings, messenger := newTestScheduler(checkin.BotState{}, at(7, 30), nil)

	s.Tick(context.Background())

	if messenger.sendCount() != 0 {
		t.Errorf("expected no send without a channel, got %d", messenger.sendCount())
	}
	if settings.State().WasFirstPost {
		t.Error("flag must not flip when evaluation is skipped")
	}
}

func TestExactCutoffMinutePosts(t *testing.T) {
	// Steady state, last post 10 minutes ago: the recovery predicate says
	// no, but the cutoff-minute fast path posts unconditionally.
	s, _, messenger := newTestScheduler(checkin.BotState{
		ChannelID:    "c1",
		DailyMessage: "hi",
		LastPostTime: ptr(at(7, 20)),
	}, at(7, 30), nil)

	s.Tick(context.Background())

	if messenger.sendCount() != 1 {
		t.Errorf("expected fast-path post at the cutoff minute, got %d sends", messenger.sendCount())
	}
}

func TestMemoryLimiterCooldown(t *testing.T) {
	l := &attemptLimiter{} // memory path only
	base := at(10, 0)

	if !l.AllowAttempt(base) {
		t.Fatal("first attempt should be allowed")
	}
	if l.AllowAttempt(base.Add(3 * time.Minute)) {
		t.Error("attempt inside the 5 minute cooldown should be blocked")
	}
	if !l.AllowAttempt(base.Add(6 * time.Minute)) {
		t.Error("attempt after the cooldown should be allowed")
	}
}

func TestTicksWithinCooldownEvaluateOnce(t *testing.T) {
	limiter := &attemptLimiter{}
	s, _, messenger := newTestScheduler(
		checkin.BotState{ChannelID: "c1", DailyMessage: "hi"},
		at(12, 0), limiter)

	s.Tick(context.Background())
	s.now = func() time.Time { return at(12, 1) }
	s.Tick(context.Background())

	if messenger.sendCount() != 1 {
		t.Errorf("second tick within the cooldown must not reach the predicate, got %d sends", messenger.sendCount())
	}
}

func TestSteadyStateSpacing(t *testing.T) {
	now := at(6, 0) // before today's 07:30 target

	t.Run("20h ago, before target", func(t *testing.T) {
		s, _, messenger := newTestScheduler(checkin.BotState{
			ChannelID:    "c1",
			DailyMessage: "hi",
			LastPostTime: ptr(now.Add(-20 * time.Hour)),
		}, now, nil)
		s.Tick(context.Background())
		if messenger.sendCount() != 0 {
			t.Errorf("expected no post, got %d", messenger.sendCount())
		}
	})

	t.Run("25h ago posts regardless of target", func(t *testing.T) {
		s, _, messenger := newTestScheduler(checkin.BotState{
			ChannelID:    "c1",
			DailyMessage: "hi",
			LastPostTime: ptr(now.Add(-25 * time.Hour)),
		}, now, nil)
		s.Tick(context.Background())
		if messenger.sendCount() != 1 {
			t.Errorf("expected a post after 25h, got %d", messenger.sendCount())
		}
	})

	t.Run("23h ago blocked even past target", func(t *testing.T) {
		// 09:00, last post 10:00 yesterday: past today's target and the
		// last post predates it, but minimum spacing wins.
		now := at(9, 0)
		s, _, messenger := newTestScheduler(checkin.BotState{
			ChannelID:    "c1",
			DailyMessage: "hi",
			LastPostTime: ptr(now.Add(-23 * time.Hour)),
		}, now, nil)
		s.Tick(context.Background())
		if messenger.sendCount() != 0 {
			t.Errorf("expected spacing guard to block, got %d sends", messenger.sendCount())
		}
	})

	t.Run("past target and not posted since", func(t *testing.T) {
		// 08:00, last post 08:00 yesterday: exactly 24h is not >24h, but the
		// past-target branch fires.
		now := at(8, 0)
		s, _, messenger := newTestScheduler(checkin.BotState{
			ChannelID:    "c1",
			DailyMessage: "hi",
			LastPostTime: ptr(now.Add(-24 * time.Hour)),
		}, now, nil)
		s.Tick(context.Background())
		if messenger.sendCount() != 1 {
			t.Errorf("expected recovery post, got %d sends", messenger.sendCount())
		}
	})
}

func TestFirstPostTransition(t *testing.T) {
	t.Run("waits until the next cutoff crossing", func(t *testing.T) {
		// First post happened at 13:00 yesterday; 06:00 today is before the
		// target, so no post and the flag stays set.
		now := at(6, 0)
		s, settings, messenger := newTestScheduler(checkin.BotState{
			ChannelID:    "c1",
			DailyMessage: "hi",
			LastPostTime: ptr(now.Add(-17 * time.Hour)),
			WasFirstPost: true,
		}, now, nil)
		s.Tick(context.Background())
		if messenger.sendCount() != 0 {
			t.Errorf("expected no post before target, got %d", messenger.sendCount())
		}
		if !settings.State().WasFirstPost {
			t.Error("flag must remain set until the transition fires")
		}
	})

	t.Run("posts and clears the flag after the crossing", func(t *testing.T) {
		// First post at 13:00 yesterday, now 07:31 today: past target, last
		// post before it. The 23.5h spacing does not apply in this state.
		now := at(7, 31)
		s, settings, messenger := newTestScheduler(checkin.BotState{
			ChannelID:    "c1",
			DailyMessage: "hi",
			LastPostTime: ptr(now.Add(-18*time.Hour - 31*time.Minute)),
			WasFirstPost: true,
		}, now, nil)
		s.Tick(context.Background())
		if messenger.sendCount() != 1 {
			t.Fatalf("expected the first recovery transition to post, got %d", messenger.sendCount())
		}
		if settings.State().WasFirstPost {
			t.Error("flag must clear on the transition")
		}
	})
}

func TestSendFailureDoesNotAdvanceLastPost(t *testing.T) {
	now := at(9, 0)
	last := now.Add(-25 * time.Hour)
	s, settings, messenger := newTestScheduler(checkin.BotState{
		ChannelID:    "c1",
		DailyMessage: "hi",
		LastPostTime: ptr(last),
	}, now, nil)
	messenger.sendErr = errors.New("gateway unreachable")

	s.Tick(context.Background())

	st := settings.State()
	if st.LastPostTime == nil || !st.LastPostTime.Equal(last) {
		t.Errorf("LastPostTime must not advance on send failure: %v", st.LastPostTime)
	}
}

func TestHeldGuardDropsTick(t *testing.T) {
	s, _, messenger := newTestScheduler(
		checkin.BotState{ChannelID: "c1", DailyMessage: "hi"},
		at(7, 30), nil)

	s.mu.Lock()
	done := make(chan struct{})
	go func() {
		s.Tick(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick blocked on a held guard instead of dropping")
	}
	s.mu.Unlock()

	if messenger.sendCount() != 0 {
		t.Errorf("dropped tick must not post, got %d sends", messenger.sendCount())
	}
}
