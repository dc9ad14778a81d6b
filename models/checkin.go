package models

import "time"

// CheckIn stores one check-in per user per logical day. The unique pair index
// makes repeated reactions for the same day an upsert no-op.
type CheckIn struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index;index:idx_checkin_user_date,unique;not null" json:"user_id"`
	CheckinDate time.Time `gorm:"index:idx_checkin_user_date,unique;type:date;not null" json:"checkin_date"`
	CreatedAt   time.Time `json:"created_at"`
}
