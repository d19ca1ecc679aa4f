package models

import "time"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	MiddleName string    `json:"middle_name"`
	Email      string    `gorm:"uniqueIndex;size:255" json:"email"`
	Password   string    `json:"-"`
	Role       string    `gorm:"default:'engineer'" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}
