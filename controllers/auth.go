package controllers

import (
	"errors"
	"net/http"

	"defecttrack/constants"
	"defecttrack/models"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

type registerInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// Register creates a new user. Everyone registers as an engineer; manager
// and observer accounts are provisioned out of band.
func (ac *AuthController) Register(c *gin.Context) {
	var input registerInput

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Email == "" || input.Password == "" {
		abortWithError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var existing models.User
	err := ac.DB.Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		abortWithError(c, http.StatusConflict, "User with this email already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	user := models.User{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		MiddleName: input.MiddleName,
		Email:      input.Email,
		Password:   hashed,
		Role:       constants.RoleEngineer,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	token, _ := utils.GenerateJWT(user)

	c.JSON(http.StatusCreated, gin.H{
		"user":         user,
		"access_token": token,
	})
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var input loginInput
	var user models.User

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := ac.DB.
		Where("email = ?", input.Email).
		First(&user).Error; err != nil {

		abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPassword(input.Password, user.Password) {
		abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, _ := utils.GenerateJWT(user)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"access_token": token,
	})
}
