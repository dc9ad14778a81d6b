package checkin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SunnyAureliusRichard/meditation-cogs/models"
)

// BotState is an immutable snapshot of the persisted bot settings.
type BotState struct {
	ChannelID    string
	DailyMessage string
	LastPostTime *time.Time
	WasFirstPost bool
}

// SettingsStore keeps the singleton settings row cached in memory and writes
// it back on every mutation, so a crash can never observe a flag flip
// without the matching persisted value.
type SettingsStore struct {
	db *gorm.DB

	mu  sync.Mutex
	cur BotState
}

// LoadSettings reads the settings row, synthesizing defaults when none
// exists yet. A stored last-post timestamp that fails to parse is corrupted
// state and aborts startup.
func LoadSettings(db *gorm.DB, defaultMessage string) (*SettingsStore, error) {
	st := &SettingsStore{db: db}

	var row models.Settings
	err := db.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st.cur = BotState{DailyMessage: defaultMessage}
		if err := st.persistLocked(); err != nil {
			return nil, fmt.Errorf("initialize settings: %w", err)
		}
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	state := BotState{
		ChannelID:    row.ChannelID,
		DailyMessage: row.DailyMessage,
		WasFirstPost: row.WasFirstPost,
	}
	if state.DailyMessage == "" {
		state.DailyMessage = defaultMessage
	}
	last, err := parseLastPost(row.LastPostTime)
	if err != nil {
		return nil, err
	}
	state.LastPostTime = last
	st.cur = state
	return st, nil
}

// parseLastPost decodes the stored last-post timestamp. Empty means the bot
// has never posted; anything else must be valid RFC3339 or startup aborts.
func parseLastPost(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("corrupted last_post_time %q: %w", raw, err)
	}
	t = t.UTC()
	return &t, nil
}

// State returns a snapshot of the current settings.
func (s *SettingsStore) State() BotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// SetChannel updates the target channel and persists immediately.
func (s *SettingsStore) SetChannel(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.ChannelID = channelID
	return s.persistLocked()
}

// SetDailyMessage updates the prompt text and persists immediately.
func (s *SettingsStore) SetDailyMessage(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.DailyMessage = msg
	return s.persistLocked()
}

// SetWasFirstPost flips the first-post flag and persists immediately.
func (s *SettingsStore) SetWasFirstPost(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.WasFirstPost = v
	return s.persistLocked()
}

// MarkPosted records a successful post at the given instant.
func (s *SettingsStore) MarkPosted(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now.UTC()
	s.cur.LastPostTime = &t
	return s.persistLocked()
}

func (s *SettingsStore) persistLocked() error {
	row := models.Settings{
		ID:           1,
		ChannelID:    s.cur.ChannelID,
		DailyMessage: s.cur.DailyMessage,
		WasFirstPost: s.cur.WasFirstPost,
	}
	if s.cur.LastPostTime != nil {
		row.LastPostTime = s.cur.LastPostTime.UTC().Format(time.RFC3339)
	}
	return s.db.Save(&row).Error
}
