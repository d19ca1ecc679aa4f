package controllers

import (
	"net/http"
	"time"

	"defecttrack/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BuildingController handles building objects and their work stages.
type BuildingController struct {
	DB *gorm.DB
}

type objectInput struct {
	ProjectID   uint    `json:"project_id"`
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

func (bc *BuildingController) CreateObject(c *gin.Context) {
	var input objectInput

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == nil || *input.Name == "" {
		abortWithError(c, http.StatusBadRequest, "Object name is required")
		return
	}

	var project models.Project
	if err := bc.DB.First(&project, input.ProjectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Project not found")
		return
	}

	object := models.BuildingObject{
		ProjectID: input.ProjectID,
		Name:      *input.Name,
	}
	if input.Type != nil {
		object.Type = *input.Type
	}
	if input.Description != nil {
		object.Description = *input.Description
	}

	if err := bc.DB.Create(&object).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, object)
}

func (bc *BuildingController) GetObject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid object ID")
		return
	}

	var object models.BuildingObject
	err := bc.DB.
		Preload("Project").
		Preload("Stages").
		First(&object, id).Error
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Building object not found")
		return
	}

	c.JSON(http.StatusOK, object)
}

func (bc *BuildingController) UpdateObject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid object ID")
		return
	}

	var object models.BuildingObject
	if err := bc.DB.First(&object, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Building object not found")
		return
	}

	var input objectInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if input.Name != nil && *input.Name != "" {
		object.Name = *input.Name
	}
	if input.Type != nil {
		object.Type = *input.Type
	}
	if input.Description != nil {
		object.Description = *input.Description
	}

	bc.DB.Save(&object)

	c.JSON(http.StatusOK, object)
}

// DeleteObject is blocked while any defect references the object.
func (bc *BuildingController) DeleteObject(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid object ID")
		return
	}

	var object models.BuildingObject
	if err := bc.DB.First(&object, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Building object not found")
		return
	}

	var defectsCount int64
	bc.DB.Model(&models.Defect{}).Where("building_object_id = ?", id).Count(&defectsCount)
	if defectsCount > 0 {
		abortWithError(c, http.StatusBadRequest, "Cannot delete building object with existing defects")
		return
	}

	bc.DB.Delete(&object)

	c.JSON(http.StatusOK, gin.H{"message": "Building object deleted successfully"})
}

type stageInput struct {
	BuildingObjectID uint       `json:"building_object_id"`
	Name             *string    `json:"name"`
	Description      *string    `json:"description"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
}

func (bc *BuildingController) CreateStage(c *gin.Context) {
	var input stageInput

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == nil || *input.Name == "" {
		abortWithError(c, http.StatusBadRequest, "Stage name is required")
		return
	}

	var object models.BuildingObject
	if err := bc.DB.First(&object, input.BuildingObjectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Building object not found")
		return
	}

	stage := models.Stage{
		BuildingObjectID: input.BuildingObjectID,
		Name:             *input.Name,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
	}
	if input.Description != nil {
		stage.Description = *input.Description
	}

	if err := bc.DB.Create(&stage).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, stage)
}

func (bc *BuildingController) GetStage(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid stage ID")
		return
	}

	var stage models.Stage
	err := bc.DB.
		Preload("BuildingObject.Project").
		First(&stage, id).Error
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Stage not found")
		return
	}

	c.JSON(http.StatusOK, stage)
}

func (bc *BuildingController) UpdateStage(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid stage ID")
		return
	}

	var stage models.Stage
	if err := bc.DB.First(&stage, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Stage not found")
		return
	}

	var input stageInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if input.Name != nil && *input.Name != "" {
		stage.Name = *input.Name
	}
	if input.Description != nil {
		stage.Description = *input.Description
	}
	if input.StartDate != nil {
		stage.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		stage.EndDate = input.EndDate
	}

	bc.DB.Save(&stage)

	c.JSON(http.StatusOK, stage)
}

// DeleteStage is blocked while any defect references the stage.
func (bc *BuildingController) DeleteStage(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid stage ID")
		return
	}

	var stage models.Stage
	if err := bc.DB.First(&stage, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Stage not found")
		return
	}

	var defectsCount int64
	bc.DB.Model(&models.Defect{}).Where("stage_id = ?", id).Count(&defectsCount)
	if defectsCount > 0 {
		abortWithError(c, http.StatusBadRequest, "Cannot delete stage with existing defects")
		return
	}

	bc.DB.Delete(&stage)

	c.JSON(http.StatusOK, gin.H{"message": "Stage deleted successfully"})
}
