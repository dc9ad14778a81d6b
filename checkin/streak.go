package checkin

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

const (
	leaderboardCacheKey = "leaderboard:v1"
	leaderboardCacheTTL = time.Minute
)

// LeaderboardEntry pairs a user with their current streak.
type LeaderboardEntry struct {
	UserID int64 `json:"user_id"`
	Streak int   `json:"streak"`
}

// StreakOf walks a newest-first day list and counts consecutive days back
// from the most recent one. The walk intentionally does not check that the
// most recent day is current: a user whose last check-in was weeks ago still
// reports the streak they ended on. Downstream consumers rely on that
// reading, so do not add a recency cutoff here.
func StreakOf(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	streak := 1
	expected := days[0]
	for _, day := range days[1:] {
		if expected.AddDate(0, 0, -1).Equal(day) {
			streak++
			expected = day
		} else {
			break
		}
	}
	return streak
}

// Streak returns the user's current consecutive-day streak, 0 when the user
// has no records.
func (s *Store) Streak(userID int64) (int, error) {
	days, err := s.Days(userID)
	if err != nil {
		return 0, err
	}
	return StreakOf(days), nil
}

// Leaderboard ranks every user with a nonzero streak, descending. Ties keep
// ascending user-id order (stable sort over DistinctUsers output), so the
// result is deterministic for a fixed record set. Served from a short Redis
// cache when available.
func (s *Store) Leaderboard() ([]LeaderboardEntry, error) {
	if b, ok := cacheGet(leaderboardCacheKey); ok {
		var cached []LeaderboardEntry
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	users, err := s.DistinctUsers()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, userID := range users {
		streak, err := s.Streak(userID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LeaderboardEntry{UserID: userID, Streak: streak})
	}

	ranked := rank(entries)
	cacheSetJSON(leaderboardCacheKey, ranked, leaderboardCacheTTL)
	return ranked, nil
}

// rank drops zero streaks and orders the rest by streak, descending. The sort
// is stable, so entries arriving in ascending user-id order keep that order
// on ties.
func rank(entries []LeaderboardEntry) []LeaderboardEntry {
	ranked := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if e.Streak > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Streak > ranked[j].Streak
	})
	return ranked
}

// InvalidateLeaderboard drops the cached ranking after a record mutation.
func InvalidateLeaderboard() {
	rc := utils.GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = rc.Del(ctx, leaderboardCacheKey).Err()
}

func cacheGet(key string) ([]byte, bool) {
	rc := utils.GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func cacheSetJSON(key string, v any, ttl time.Duration) {
	rc := utils.GetRedis()
	if rc == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("leaderboard cache set failed: %v", err)
	}
}
