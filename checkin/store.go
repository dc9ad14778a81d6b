package checkin

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SunnyAureliusRichard/meditation-cogs/models"
)

// Store owns all CheckIn rows. Mutations are single-row and idempotent; the
// unique (user_id, checkin_date) index does the heavy lifting.
type Store struct {
	db *gorm.DB
}

// NewStore creates a record store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record registers a check-in for the user on the logical day. Recording the
// same pair twice is a no-op.
func (s *Store) Record(userID int64, day time.Time) error {
	rec := models.CheckIn{UserID: userID, CheckinDate: day}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// Remove deletes the user's check-in for the logical day. Removing an absent
// record is a no-op.
func (s *Store) Remove(userID int64, day time.Time) error {
	return s.db.
		Where("user_id = ? AND checkin_date = ?", userID, day).
		Delete(&models.CheckIn{}).Error
}

// Days returns the user's recorded logical days, newest first.
func (s *Store) Days(userID int64) ([]time.Time, error) {
	var recs []models.CheckIn
	if err := s.db.
		Where("user_id = ?", userID).
		Order("checkin_date DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(recs))
	for _, r := range recs {
		days = append(days, r.CheckinDate.UTC())
	}
	return days, nil
}

// DistinctUsers lists every user with at least one record, ascending by id.
// The ordering fixes leaderboard tie order across computations.
func (s *Store) DistinctUsers() ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.CheckIn{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
