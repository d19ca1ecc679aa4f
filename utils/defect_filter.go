package utils

import (
	"strings"
	"time"

	"defecttrack/constants"
	"defecttrack/models"

	"gorm.io/gorm"
)

const DefaultPageLimit = 25

// DefectFilter is the filter specification for defect listing. ProjectScope
// and MineUserID are set by the listing entry points, never from the query
// string.
type DefectFilter struct {
	Statuses         []string
	Priorities       []string
	AssigneeID       uint
	AuthorID         uint
	ProjectID        uint
	BuildingObjectID uint
	StageID          uint
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	PlannedFrom      *time.Time
	PlannedTo        *time.Time
	Overdue          bool
	Search           string

	ProjectScope []uint
	MineUserID   uint

	Page  int
	Limit int
}

func (f DefectFilter) Pagination() (page, limit, offset int) {
	page = f.Page
	if page < 1 {
		page = 1
	}
	limit = f.Limit
	if limit < 1 {
		limit = DefaultPageLimit
	}
	return page, limit, (page - 1) * limit
}

func terminalStatuses() []string {
	return []string{constants.DefectStatusClosed, constants.DefectStatusCancelled}
}

func additionalAssigneeDefectIDs(db *gorm.DB, userID uint) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Table("defect_additional_assignees").
		Select("defect_id").
		Where("user_id = ?", userID)
}

// ApplyDefectFilters composes every active filter with AND. OR only exists
// inside three self-contained groups: the assignee match (primary assignee
// or additional-assignee membership), the my-tasks match, and the text
// search (title or description). The groups stay separate so that e.g.
// assignee + search means (assignee-group) AND (search-group), never one
// flattened OR list.
//
// Overdue=true replaces any supplied status and planned-date range filters
// with plannedDate < now AND status not terminal.
func ApplyDefectFilters(db *gorm.DB, f DefectFilter) *gorm.DB {
	group := func() *gorm.DB { return db.Session(&gorm.Session{NewDB: true}) }

	q := db.Model(&models.Defect{})

	if len(f.ProjectScope) > 0 {
		q = q.Where("project_id IN ?", f.ProjectScope)
	}
	if f.MineUserID != 0 {
		q = q.Where(group().
			Where("author_id = ?", f.MineUserID).
			Or("assignee_id = ?", f.MineUserID).
			Or("id IN (?)", additionalAssigneeDefectIDs(db, f.MineUserID)))
	}

	if len(f.Priorities) > 0 {
		q = q.Where("priority IN ?", f.Priorities)
	}
	if f.AssigneeID != 0 {
		q = q.Where(group().
			Where("assignee_id = ?", f.AssigneeID).
			Or("id IN (?)", additionalAssigneeDefectIDs(db, f.AssigneeID)))
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.ProjectID != 0 {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.BuildingObjectID != 0 {
		q = q.Where("building_object_id = ?", f.BuildingObjectID)
	}
	if f.StageID != 0 {
		q = q.Where("stage_id = ?", f.StageID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}

	if f.Overdue {
		q = q.Where("planned_date < ?", time.Now()).
			Where("status NOT IN ?", terminalStatuses())
	} else {
		if len(f.Statuses) > 0 {
			q = q.Where("status IN ?", f.Statuses)
		}
		if f.PlannedFrom != nil {
			q = q.Where("planned_date >= ?", *f.PlannedFrom)
		}
		if f.PlannedTo != nil {
			q = q.Where("planned_date <= ?", *f.PlannedTo)
		}
	}

	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where(group().
			Where("LOWER(title) LIKE ?", term).
			Or("LOWER(description) LIKE ?", term))
	}

	return q
}
