package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/SunnyAureliusRichard/meditation-cogs/checkin"
	"github.com/SunnyAureliusRichard/meditation-cogs/platform"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

const (
	// Minimum spacing between posting attempts, successful or not.
	attemptCooldown = 5 * time.Minute
	// A recovery post is never emitted sooner than this after the last one.
	minPostSpacing = 23*time.Hour + 30*time.Minute
	// Past this, a recovery post happens regardless of cutoff alignment.
	maxPostSpacing = 24 * time.Hour
)

// Settings is the slice of the settings store the scheduler needs.
type Settings interface {
	State() checkin.BotState
	SetWasFirstPost(bool) error
	MarkPosted(time.Time) error
}

// AttemptLimiter gates posting attempts. AllowAttempt reports whether an
// attempt may proceed now and, if so, records it.
type AttemptLimiter interface {
	AllowAttempt(now time.Time) bool
}

// Scheduler drives the daily prompt. A minute ticker calls Tick; each tick
// re-derives everything from the persisted settings, so the scheduler
// recovers correctly after downtime without any extra state.
type Scheduler struct {
	settings  Settings
	messenger platform.Messenger
	limiter   AttemptLimiter

	// guard against overlapping evaluations; a tick that finds it held is
	// dropped, not queued
	mu sync.Mutex

	now func() time.Time
}

// New creates a scheduler.
func New(settings Settings, messenger platform.Messenger, limiter AttemptLimiter) *Scheduler {
	return &Scheduler{
		settings:  settings,
		messenger: messenger,
		limiter:   limiter,
		now:       time.Now,
	}
}

// Run evaluates on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	utils.Sugar.Infow("posting scheduler started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			utils.Sugar.Info("posting scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one evaluation. Safe to call concurrently; extra callers are
// dropped while an evaluation is in flight. Never panics out.
func (s *Scheduler) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			utils.Sugar.Errorw("panic during posting evaluation", "panic", r)
		}
	}()

	if !s.mu.TryLock() {
		utils.Sugar.Debug("evaluation already in flight, dropping tick")
		return
	}
	defer s.mu.Unlock()

	now := s.now().UTC()
	st := s.settings.State()

	if st.ChannelID == "" {
		utils.Sugar.Debug("no channel configured, skipping post evaluation")
		return
	}

	if !s.limiter.AllowAttempt(now) {
		utils.Sugar.Debug("within post attempt cooldown, skipping")
		return
	}

	target := checkin.CutoffOn(now)

	// Fast path: the tick landed on the cutoff minute itself.
	if now.Hour() == target.Hour() && now.Minute() == target.Minute() {
		utils.Sugar.Info("cutoff minute reached, posting daily prompt")
		s.post(ctx, now, st)
		return
	}

	if s.shouldPost(now, target, st) {
		utils.Sugar.Info("recovery posting needed")
		s.post(ctx, now, st)
	}
}

// shouldPost is the recovery predicate: it decides whether a prompt that was
// missed at the cutoff minute should be emitted now. The was-first-post flag
// bridges the gap between the very first post (which happens immediately,
// whatever the time) and the steady daily rhythm.
func (s *Scheduler) shouldPost(now, target time.Time, st checkin.BotState) bool {
	if st.LastPostTime == nil {
		utils.Sugar.Info("never posted before, posting now")
		if err := s.settings.SetWasFirstPost(true); err != nil {
			utils.Sugar.Errorw("persist first-post flag failed", "err", err)
		}
		return true
	}

	last := st.LastPostTime.UTC()
	elapsed := now.Sub(last)
	utils.Sugar.Debugw("evaluating recovery predicate",
		"last_post", last.Format(time.RFC3339), "elapsed", elapsed)

	if st.WasFirstPost {
		// After the off-schedule first post, wait for the first genuine
		// cutoff crossing before resuming the daily cadence.
		if !now.Before(target) && last.Before(target) {
			if err := s.settings.SetWasFirstPost(false); err != nil {
				utils.Sugar.Errorw("clear first-post flag failed", "err", err)
			}
			return true
		}
		return false
	}

	if elapsed < minPostSpacing {
		return false
	}
	if !now.Before(target) && last.Before(target) {
		return true
	}
	if elapsed > maxPostSpacing {
		return true
	}
	return false
}

// post sends the prompt and updates bookkeeping. A failed send leaves
// LastPostTime untouched so a later tick retries, still subject to the
// attempt cooldown.
func (s *Scheduler) post(ctx context.Context, now time.Time, st checkin.BotState) {
	msg, err := s.messenger.Send(ctx, st.ChannelID, st.DailyMessage)
	if err != nil {
		utils.Sugar.Errorw("daily prompt send failed",
			"channel_id", st.ChannelID, "err", err)
		return
	}

	for _, marker := range platform.Markers {
		if err := s.messenger.AddReaction(ctx, msg, marker); err != nil {
			utils.Sugar.Warnw("attach reaction failed",
				"message_id", msg.ID, "marker", marker, "err", err)
		}
	}

	if err := s.settings.MarkPosted(now); err != nil {
		utils.Sugar.Errorw("persist last post time failed", "err", err)
		return
	}
	utils.Sugar.Infow("daily prompt posted",
		"channel_id", st.ChannelID, "message_id", msg.ID)
}
