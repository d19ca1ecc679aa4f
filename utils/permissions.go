package utils

import (
	"defecttrack/constants"
	"defecttrack/models"
)

func IsTerminalStatus(status string) bool {
	return status == constants.DefectStatusClosed ||
		status == constants.DefectStatusCancelled
}

func isAuthorOrAssignee(defect models.Defect, userID uint) bool {
	if defect.AuthorID == userID {
		return true
	}
	return defect.AssigneeID != nil && *defect.AssigneeID == userID
}

// CanEditDefect gates field-level updates: author, primary assignee or
// manager. Terminal defects are additionally locked to managers, which
// callers check via IsTerminalStatus.
func CanEditDefect(defect models.Defect, userID uint, role string) bool {
	if role == constants.RoleManager {
		return true
	}
	return isAuthorOrAssignee(defect, userID)
}

// CanChangeDefectStatus holds the whole transition-authorization rule:
// managers may move a defect to any status; anyone else must be the author
// or the primary assignee, and is then also allowed any target status.
func CanChangeDefectStatus(defect models.Defect, userID uint, role string) bool {
	if role == constants.RoleManager {
		return true
	}
	return isAuthorOrAssignee(defect, userID)
}

// CanManageAdditionalAssignees permits managers, the author and the primary
// assignee to extend the additional-assignee set.
func CanManageAdditionalAssignees(defect models.Defect, userID uint, role string) bool {
	if role == constants.RoleManager {
		return true
	}
	return isAuthorOrAssignee(defect, userID)
}
