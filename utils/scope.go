package utils

import (
	"defecttrack/constants"

	"gorm.io/gorm"
)

// ProjectScopeForRole returns the IDs of projects the user is attached to
// via the membership link for their role. Callers must treat an empty
// result as "no access" and short-circuit instead of issuing a query with
// an empty IN-list.
func ProjectScopeForRole(db *gorm.DB, userID uint, role string) ([]uint, error) {
	var table string
	switch role {
	case constants.RoleManager:
		table = "project_managers"
	case constants.RoleObserver:
		table = "project_observers"
	default:
		return nil, nil
	}

	var ids []uint
	err := db.Table(table).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error
	return ids, err
}

// IsProjectEngineer reports whether the user is in the project's engineer
// set. Used to gate defect creation by engineers.
func IsProjectEngineer(db *gorm.DB, projectID, userID uint) (bool, error) {
	var count int64
	err := db.Table("project_engineers").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}
