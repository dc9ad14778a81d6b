package models

import "time"

// Settings is the singleton bot state row. LastPostTime is kept as an RFC3339
// string (empty means never posted) so a corrupted value is detectable at
// load time instead of being silently zeroed by the driver.
type Settings struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ChannelID    string    `gorm:"size:64" json:"channel_id"`
	DailyMessage string    `gorm:"size:1024;not null" json:"daily_message"`
	LastPostTime string    `gorm:"size:64" json:"last_post_time"`
	WasFirstPost bool      `gorm:"not null;default:false" json:"was_first_post"`
	UpdatedAt    time.Time `json:"updated_at"`
}
