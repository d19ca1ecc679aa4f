package models

import "time"

// Attachment stores its bytes inline. Exactly one of DefectID/CommentID is
// set.
type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	FileSize  int64     `json:"file_size"`
	FileData  []byte    `json:"-"`
	DefectID  *uint     `json:"defect_id"`
	CommentID *uint     `json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}
