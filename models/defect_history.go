package models

import "time"

// DefectHistory is an append-only audit row; nothing ever updates or
// deletes these.
type DefectHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DefectID  uint      `json:"defect_id"`
	UserID    uint      `json:"user_id"`
	User      *User     `json:"user,omitempty"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}
