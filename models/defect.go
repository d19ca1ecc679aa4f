package models

import "time"

type Defect struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Status              string          `gorm:"default:'new'" json:"status"`
	Priority            string          `gorm:"default:'medium'" json:"priority"`
	ProjectID           uint            `json:"project_id"`
	Project             *Project        `json:"project,omitempty"`
	BuildingObjectID    uint            `json:"building_object_id"`
	BuildingObject      *BuildingObject `json:"building_object,omitempty"`
	StageID             uint            `json:"stage_id"`
	Stage               *Stage          `json:"stage,omitempty"`
	AuthorID            uint            `json:"author_id"`
	Author              *User           `json:"author,omitempty"`
	AssigneeID          *uint           `json:"assignee_id"`
	Assignee            *User           `json:"assignee,omitempty"`
	AdditionalAssignees []User          `gorm:"many2many:defect_additional_assignees;" json:"additional_assignees,omitempty"`
	PlannedDate         *time.Time      `json:"planned_date"`
	Comments            []Comment       `gorm:"foreignKey:DefectID" json:"comments,omitempty"`
	Attachments         []Attachment    `gorm:"foreignKey:DefectID" json:"attachments,omitempty"`
	History             []DefectHistory `gorm:"foreignKey:DefectID" json:"history,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
