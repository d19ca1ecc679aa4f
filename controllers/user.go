package controllers

import (
	"net/http"

	"defecttrack/constants"
	"defecttrack/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func (uc *UserController) GetUsers(c *gin.Context) {
	var users []models.User
	uc.DB.Find(&users)
	c.JSON(http.StatusOK, users)
}

// GetEngineers lists engineers for assignment pickers, ordered by last name.
func (uc *UserController) GetEngineers(c *gin.Context) {
	var users []models.User
	uc.DB.
		Where("role = ?", constants.RoleEngineer).
		Order("last_name ASC").
		Find(&users)
	c.JSON(http.StatusOK, users)
}
