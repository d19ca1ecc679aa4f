package controllers

import (
	"fmt"
	"net/http"
	"time"

	"defecttrack/constants"
	"defecttrack/middleware"
	"defecttrack/models"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DefectController struct {
	DB *gorm.DB
}

func (dc *DefectController) logHistory(defectID, userID uint, field, oldValue, newValue string) {
	dc.DB.Create(&models.DefectHistory{
		DefectID: defectID,
		UserID:   userID,
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

func (dc *DefectController) loadDefect(id uint) (models.Defect, error) {
	var defect models.Defect
	err := dc.DB.
		Preload("Project").
		Preload("BuildingObject").
		Preload("Stage").
		Preload("Author").
		Preload("Assignee").
		Preload("AdditionalAssignees").
		First(&defect, id).Error
	return defect, err
}

type createDefectInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ProjectID        uint       `json:"project_id"`
	BuildingObjectID uint       `json:"building_object_id"`
	StageID          uint       `json:"stage_id"`
	Priority         string     `json:"priority"`
	PlannedDate      *time.Time `json:"planned_date"`
}

// CreateDefect validates that the project, object and stage exist and
// belong together, and that engineer authors are members of the project's
// engineer set.
func (dc *DefectController) CreateDefect(c *gin.Context) {
	var input createDefectInput

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Title == "" {
		abortWithError(c, http.StatusBadRequest, "Title is required")
		return
	}
	if input.Priority != "" && !constants.ValidDefectPriority(input.Priority) {
		abortWithError(c, http.StatusBadRequest, "Invalid priority")
		return
	}

	var project models.Project
	if err := dc.DB.First(&project, input.ProjectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	var object models.BuildingObject
	if err := dc.DB.First(&object, input.BuildingObjectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Building object not found")
		return
	}
	if object.ProjectID != project.ID {
		abortWithError(c, http.StatusBadRequest, "Building object does not belong to the project")
		return
	}

	var stage models.Stage
	if err := dc.DB.First(&stage, input.StageID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Stage not found")
		return
	}
	if stage.BuildingObjectID != object.ID {
		abortWithError(c, http.StatusBadRequest, "Stage does not belong to the building object")
		return
	}

	userID := middleware.UserID(c)
	if middleware.Role(c) == constants.RoleEngineer {
		member, err := utils.IsProjectEngineer(dc.DB, project.ID, userID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !member {
			abortWithError(c, http.StatusForbidden, "You are not assigned to this project")
			return
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = constants.DefectPriorityMedium
	}

	defect := models.Defect{
		Title:            input.Title,
		Description:      input.Description,
		Status:           constants.DefectStatusNew,
		Priority:         priority,
		ProjectID:        input.ProjectID,
		BuildingObjectID: input.BuildingObjectID,
		StageID:          input.StageID,
		AuthorID:         userID,
		PlannedDate:      input.PlannedDate,
	}

	if err := dc.DB.Create(&defect).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	created, _ := dc.loadDefect(defect.ID)
	c.JSON(http.StatusCreated, created)
}

func (dc *DefectController) GetDefect(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var defect models.Defect
	err := dc.DB.
		Preload("Project").
		Preload("BuildingObject").
		Preload("Stage").
		Preload("Author").
		Preload("Assignee").
		Preload("AdditionalAssignees").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.Author").
		Preload("Comments.Attachments").
		Preload("Attachments").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("defect_histories.created_at DESC")
		}).
		Preload("History.User").
		First(&defect, id).Error
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	c.JSON(http.StatusOK, defect)
}

type updateDefectInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	PlannedDate *time.Time `json:"planned_date"`
}

// UpdateDefect applies a partial field update. Author, assignee or manager
// only; defects in a terminal status are locked to managers.
func (dc *DefectController) UpdateDefect(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var defect models.Defect
	if err := dc.DB.First(&defect, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	userID := middleware.UserID(c)
	role := middleware.Role(c)

	if !utils.CanEditDefect(defect, userID, role) {
		abortWithError(c, http.StatusForbidden, "You do not have permission to edit this defect")
		return
	}
	if utils.IsTerminalStatus(defect.Status) && role != constants.RoleManager {
		abortWithError(c, http.StatusForbidden, "Cannot edit defect in final status")
		return
	}

	var input updateDefectInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Priority != nil && !constants.ValidDefectPriority(*input.Priority) {
		abortWithError(c, http.StatusBadRequest, "Invalid priority")
		return
	}

	// History rows are appended before the update is applied.
	if input.Priority != nil && *input.Priority != defect.Priority {
		dc.logHistory(defect.ID, userID, constants.HistoryFieldPriority, defect.Priority, *input.Priority)
	}
	if input.PlannedDate != nil &&
		(defect.PlannedDate == nil || !defect.PlannedDate.Equal(*input.PlannedDate)) {
		oldValue := ""
		if defect.PlannedDate != nil {
			oldValue = defect.PlannedDate.Format(time.RFC3339)
		}
		dc.logHistory(defect.ID, userID, constants.HistoryFieldPlannedDate,
			oldValue, input.PlannedDate.Format(time.RFC3339))
	}

	if input.Title != nil && *input.Title != "" {
		defect.Title = *input.Title
	}
	if input.Description != nil {
		defect.Description = *input.Description
	}
	if input.Priority != nil {
		defect.Priority = *input.Priority
	}
	if input.PlannedDate != nil {
		defect.PlannedDate = input.PlannedDate
	}

	dc.DB.Save(&defect)

	updated, _ := dc.loadDefect(defect.ID)
	c.JSON(http.StatusOK, updated)
}

type updateStatusInput struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// UpdateDefectStatus applies a status transition. Managers may set any
// status; otherwise the actor must be the author or the primary assignee.
func (dc *DefectController) UpdateDefectStatus(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var input updateStatusInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !constants.ValidDefectStatus(input.Status) {
		abortWithError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	var defect models.Defect
	if err := dc.DB.First(&defect, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	userID := middleware.UserID(c)
	if !utils.CanChangeDefectStatus(defect, userID, middleware.Role(c)) {
		abortWithError(c, http.StatusForbidden, "You can only change status of your own or assigned defects")
		return
	}

	dc.logHistory(defect.ID, userID, constants.HistoryFieldStatus, defect.Status, input.Status)

	if input.Comment != "" {
		dc.DB.Create(&models.Comment{
			DefectID: defect.ID,
			AuthorID: userID,
			Content:  fmt.Sprintf("Статус изменен на %q: %s", constants.StatusLabel(input.Status), input.Comment),
		})
	}

	defect.Status = input.Status
	dc.DB.Save(&defect)

	updated, _ := dc.loadDefect(defect.ID)
	c.JSON(http.StatusOK, updated)
}

// AssignDefect sets the primary assignee (manager only, re-checked here in
// addition to the route guard). Assigning a defect that is still new moves
// it to in_progress.
func (dc *DefectController) AssignDefect(c *gin.Context) {
	if middleware.Role(c) != constants.RoleManager {
		abortWithError(c, http.StatusForbidden, "Only managers can assign defects")
		return
	}

	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}
	assigneeID, ok := paramUint(c, "assigneeId")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid assignee ID")
		return
	}

	var defect models.Defect
	if err := dc.DB.Preload("Assignee").First(&defect, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	var assignee models.User
	if err := dc.DB.First(&assignee, assigneeID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "User not found")
		return
	}
	if assignee.Role != constants.RoleEngineer {
		abortWithError(c, http.StatusBadRequest, "Can only assign defects to engineers")
		return
	}

	oldValue := "unassigned"
	if defect.Assignee != nil {
		oldValue = defect.Assignee.Email
	}
	dc.logHistory(defect.ID, assigneeID, constants.HistoryFieldAssignee, oldValue, assignee.Email)

	defect.AssigneeID = &assigneeID
	defect.Assignee = nil
	if defect.Status == constants.DefectStatusNew {
		defect.Status = constants.DefectStatusInProgress
	}
	dc.DB.Save(&defect)

	updated, _ := dc.loadDefect(defect.ID)
	c.JSON(http.StatusOK, updated)
}

type addAssigneesInput struct {
	AssigneeIDs []uint `json:"assignee_ids"`
}

// AddAdditionalAssignees upserts collaborating engineers onto the defect.
// Adding a user who is already on the defect is a no-op, so repeated calls
// leave one join row and one history row per user.
func (dc *DefectController) AddAdditionalAssignees(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var input addAssigneesInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(input.AssigneeIDs) == 0 {
		abortWithError(c, http.StatusBadRequest, "assignee_ids must not be empty")
		return
	}

	var defect models.Defect
	if err := dc.DB.Preload("AdditionalAssignees").First(&defect, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	userID := middleware.UserID(c)
	if !utils.CanManageAdditionalAssignees(defect, userID, middleware.Role(c)) {
		abortWithError(c, http.StatusForbidden, "You do not have permission to add assignees to this defect")
		return
	}

	unique := make(map[uint]bool, len(input.AssigneeIDs))
	var ids []uint
	for _, aid := range input.AssigneeIDs {
		if !unique[aid] {
			unique[aid] = true
			ids = append(ids, aid)
		}
	}

	var users []models.User
	if err := dc.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(users) != len(ids) {
		abortWithError(c, http.StatusNotFound, "User not found")
		return
	}
	for _, user := range users {
		if user.Role != constants.RoleEngineer {
			abortWithError(c, http.StatusBadRequest, "Can only assign defects to engineers")
			return
		}
	}

	existing := make(map[uint]bool, len(defect.AdditionalAssignees))
	for _, user := range defect.AdditionalAssignees {
		existing[user.ID] = true
	}

	for _, user := range users {
		if existing[user.ID] {
			continue
		}
		if err := dc.DB.Model(&defect).Association("AdditionalAssignees").Append(&user); err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		dc.logHistory(defect.ID, userID, constants.HistoryFieldAdditionalAssignee, "", user.Email)
	}

	updated, _ := dc.loadDefect(defect.ID)
	c.JSON(http.StatusOK, updated)
}

func (dc *DefectController) GetDefectHistory(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var defect models.Defect
	if err := dc.DB.First(&defect, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	var history []models.DefectHistory
	dc.DB.
		Preload("User").
		Where("defect_id = ?", id).
		Order("created_at DESC").
		Find(&history)

	c.JSON(http.StatusOK, history)
}
