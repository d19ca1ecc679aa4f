package models

import "time"

type Project struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	IsArchived  bool             `gorm:"default:false" json:"is_archived"`
	Objects     []BuildingObject `gorm:"foreignKey:ProjectID" json:"objects,omitempty"`
	Managers    []User           `gorm:"many2many:project_managers;" json:"managers,omitempty"`
	Observers   []User           `gorm:"many2many:project_observers;" json:"observers,omitempty"`
	Engineers   []User           `gorm:"many2many:project_engineers;" json:"engineers,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type BuildingObject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `json:"project_id"`
	Project     *Project  `json:"project,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Stages      []Stage   `gorm:"foreignKey:BuildingObjectID" json:"stages,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Stage struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	BuildingObjectID uint            `json:"building_object_id"`
	BuildingObject   *BuildingObject `json:"building_object,omitempty"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	StartDate        *time.Time      `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
