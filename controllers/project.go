package controllers

import (
	"errors"
	"net/http"
	"time"

	"defecttrack/constants"
	"defecttrack/middleware"
	"defecttrack/models"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectController struct {
	DB *gorm.DB
}

type projectInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsArchived  *bool      `json:"is_archived"`
}

func (pc *ProjectController) CreateProject(c *gin.Context) {
	var input projectInput

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == nil || *input.Name == "" {
		abortWithError(c, http.StatusBadRequest, "Project name is required")
		return
	}

	project := models.Project{
		Name:      *input.Name,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := pc.DB.Create(&project).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (pc *ProjectController) GetProjects(c *gin.Context) {
	q := pc.DB.Preload("Objects.Stages")
	if c.Query("include_archived") != "true" {
		q = q.Where("is_archived = ?", false)
	}

	var projects []models.Project
	q.Order("created_at DESC").Find(&projects)

	c.JSON(http.StatusOK, projects)
}

// GetMyProjects lists non-archived projects the caller belongs to via the
// membership link for their role (manager or observer).
func (pc *ProjectController) GetMyProjects(c *gin.Context) {
	scope, err := utils.ProjectScopeForRole(pc.DB, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(scope) == 0 {
		c.JSON(http.StatusOK, []models.Project{})
		return
	}

	var projects []models.Project
	pc.DB.
		Preload("Objects.Stages").
		Preload("Managers").
		Preload("Observers").
		Where("id IN ?", scope).
		Where("is_archived = ?", false).
		Order("created_at DESC").
		Find(&projects)

	c.JSON(http.StatusOK, projects)
}

func (pc *ProjectController) GetProject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var project models.Project
	err := pc.DB.
		Preload("Objects.Stages").
		Preload("Managers").
		Preload("Observers").
		Preload("Engineers").
		First(&project, id).Error
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	c.JSON(http.StatusOK, project)
}

func (pc *ProjectController) UpdateProject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	var input projectInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if input.Name != nil && *input.Name != "" {
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if input.IsArchived != nil {
		project.IsArchived = *input.IsArchived
	}

	pc.DB.Save(&project)

	c.JSON(http.StatusOK, project)
}

func (pc *ProjectController) ArchiveProject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	project.IsArchived = true
	pc.DB.Save(&project)

	c.JSON(http.StatusOK, project)
}

// DeleteProject hard-deletes only when the project has no defects;
// otherwise the project must be archived instead.
func (pc *ProjectController) DeleteProject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	var defectsCount int64
	pc.DB.Model(&models.Defect{}).Where("project_id = ?", id).Count(&defectsCount)
	if defectsCount > 0 {
		abortWithError(c, http.StatusBadRequest, "Cannot delete project with existing defects. Archive it instead.")
		return
	}

	pc.DB.Delete(&project)

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

var membershipAssociations = map[string]string{
	constants.RoleManager:  "Managers",
	constants.RoleObserver: "Observers",
	constants.RoleEngineer: "Engineers",
}

func (pc *ProjectController) assignMember(c *gin.Context, role string) {
	projectID, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}
	userID, ok := paramUint(c, "userId")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var project models.Project
	if err := pc.DB.First(&project, projectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	var user models.User
	if err := pc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortWithError(c, http.StatusNotFound, "User not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if user.Role != role {
		abortWithError(c, http.StatusBadRequest, "User is not a "+role)
		return
	}

	assoc := membershipAssociations[role]
	if err := pc.DB.Model(&project).Association(assoc).Append(&user); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	pc.DB.Preload(assoc).First(&project, projectID)
	c.JSON(http.StatusOK, project)
}

func (pc *ProjectController) removeMember(c *gin.Context, role string) {
	projectID, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}
	userID, ok := paramUint(c, "userId")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var project models.Project
	if err := pc.DB.First(&project, projectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	assoc := membershipAssociations[role]
	user := models.User{ID: userID}
	if err := pc.DB.Model(&project).Association(assoc).Delete(&user); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	pc.DB.Preload(assoc).First(&project, projectID)
	c.JSON(http.StatusOK, project)
}

func (pc *ProjectController) AssignManager(c *gin.Context) {
	pc.assignMember(c, constants.RoleManager)
}

func (pc *ProjectController) RemoveManager(c *gin.Context) {
	pc.removeMember(c, constants.RoleManager)
}

func (pc *ProjectController) AssignObserver(c *gin.Context) {
	pc.assignMember(c, constants.RoleObserver)
}

func (pc *ProjectController) RemoveObserver(c *gin.Context) {
	pc.removeMember(c, constants.RoleObserver)
}

func (pc *ProjectController) AssignEngineer(c *gin.Context) {
	pc.assignMember(c, constants.RoleEngineer)
}

func (pc *ProjectController) RemoveEngineer(c *gin.Context) {
	pc.removeMember(c, constants.RoleEngineer)
}
