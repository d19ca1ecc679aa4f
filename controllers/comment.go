package controllers

import (
	"net/http"

	"defecttrack/middleware"
	"defecttrack/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentController struct {
	DB *gorm.DB
}

type createCommentInput struct {
	DefectID uint   `json:"defect_id"`
	Content  string `json:"content"`
}

func (cc *CommentController) CreateComment(c *gin.Context) {
	var input createCommentInput

	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Content == "" {
		abortWithError(c, http.StatusBadRequest, "Content is required")
		return
	}

	var defect models.Defect
	if err := cc.DB.First(&defect, input.DefectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	comment := models.Comment{
		DefectID: input.DefectID,
		AuthorID: middleware.UserID(c),
		Content:  input.Content,
	}

	if err := cc.DB.Create(&comment).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	cc.DB.Preload("Author").Preload("Attachments").First(&comment, comment.ID)
	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) GetDefectComments(c *gin.Context) {
	defectID, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var defect models.Defect
	if err := cc.DB.First(&defect, defectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	var comments []models.Comment
	cc.DB.
		Preload("Author").
		Preload("Attachments").
		Where("defect_id = ?", defectID).
		Order("created_at ASC").
		Find(&comments)

	c.JSON(http.StatusOK, comments)
}

type updateCommentInput struct {
	Content string `json:"content"`
}

// UpdateComment is author-only; there is no manager override for comments.
func (cc *CommentController) UpdateComment(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := cc.DB.First(&comment, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Comment not found")
		return
	}

	if comment.AuthorID != middleware.UserID(c) {
		abortWithError(c, http.StatusForbidden, "You can only edit your own comments")
		return
	}

	var input updateCommentInput
	if err := c.BindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Content == "" {
		abortWithError(c, http.StatusBadRequest, "Content is required")
		return
	}

	comment.Content = input.Content
	cc.DB.Save(&comment)

	cc.DB.Preload("Author").Preload("Attachments").First(&comment, comment.ID)
	c.JSON(http.StatusOK, comment)
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := cc.DB.First(&comment, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Comment not found")
		return
	}

	if comment.AuthorID != middleware.UserID(c) {
		abortWithError(c, http.StatusForbidden, "You can only delete your own comments")
		return
	}

	cc.DB.Delete(&comment)

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
