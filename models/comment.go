package models

import "time"

type Comment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	DefectID    uint         `json:"defect_id"`
	AuthorID    uint         `json:"author_id"`
	Author      *User        `json:"author,omitempty"`
	Content     string       `json:"content"`
	Attachments []Attachment `gorm:"foreignKey:CommentID" json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
