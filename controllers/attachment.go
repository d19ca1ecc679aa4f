package controllers

import (
	"fmt"
	"io"
	"net/http"

	"defecttrack/constants"
	"defecttrack/middleware"
	"defecttrack/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxAttachmentSize = 10 * 1024 * 1024 // 10 MiB

var allowedAttachmentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type AttachmentController struct {
	DB *gorm.DB
}

// UploadAttachment accepts a multipart form with a "file" part and exactly
// one of defect_id/comment_id. Bytes are stored inline.
func (ac *AttachmentController) UploadAttachment(c *gin.Context) {
	defectID := queryOrFormUint(c, "defect_id")
	commentID := queryOrFormUint(c, "comment_id")

	if (defectID == 0) == (commentID == 0) {
		abortWithError(c, http.StatusBadRequest, "Exactly one of defect_id or comment_id must be provided")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "No file provided")
		return
	}

	if header.Size > maxAttachmentSize {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxAttachmentSize/1024/1024))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !allowedAttachmentTypes[mimeType] {
		abortWithError(c, http.StatusBadRequest, "File type "+mimeType+" is not allowed")
		return
	}

	attachment := models.Attachment{
		FileName: header.Filename,
		MimeType: mimeType,
		FileSize: header.Size,
	}

	if defectID != 0 {
		var defect models.Defect
		if err := ac.DB.First(&defect, defectID).Error; err != nil {
			abortWithError(c, http.StatusNotFound, "Defect not found")
			return
		}
		attachment.DefectID = &defectID
	} else {
		var comment models.Comment
		if err := ac.DB.First(&comment, commentID).Error; err != nil {
			abortWithError(c, http.StatusNotFound, "Comment not found")
			return
		}
		attachment.CommentID = &commentID
	}

	file, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(data) > maxAttachmentSize {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxAttachmentSize/1024/1024))
		return
	}
	attachment.FileData = data
	attachment.FileSize = int64(len(data))

	if err := ac.DB.Create(&attachment).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

func (ac *AttachmentController) DownloadAttachment(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid attachment ID")
		return
	}

	var attachment models.Attachment
	if err := ac.DB.First(&attachment, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Attachment not found")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", attachment.FileName))
	c.Data(http.StatusOK, attachment.MimeType, attachment.FileData)
}

// DeleteAttachment: managers always; the defect's author or assignee for
// defect attachments; the comment's author for comment attachments.
func (ac *AttachmentController) DeleteAttachment(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid attachment ID")
		return
	}

	var attachment models.Attachment
	if err := ac.DB.First(&attachment, id).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Attachment not found")
		return
	}

	userID := middleware.UserID(c)

	if middleware.Role(c) != constants.RoleManager {
		if attachment.DefectID != nil {
			var defect models.Defect
			if err := ac.DB.First(&defect, *attachment.DefectID).Error; err != nil {
				abortWithError(c, http.StatusNotFound, "Defect not found")
				return
			}
			isAuthor := defect.AuthorID == userID
			isAssignee := defect.AssigneeID != nil && *defect.AssigneeID == userID
			if !isAuthor && !isAssignee {
				abortWithError(c, http.StatusForbidden, "You can only delete attachments from your own defects")
				return
			}
		}
		if attachment.CommentID != nil {
			var comment models.Comment
			if err := ac.DB.First(&comment, *attachment.CommentID).Error; err != nil {
				abortWithError(c, http.StatusNotFound, "Comment not found")
				return
			}
			if comment.AuthorID != userID {
				abortWithError(c, http.StatusForbidden, "You can only delete attachments from your own comments")
				return
			}
		}
	}

	ac.DB.Delete(&attachment)

	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}

func (ac *AttachmentController) GetDefectAttachments(c *gin.Context) {
	defectID, ok := paramUint(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid defect ID")
		return
	}

	var defect models.Defect
	if err := ac.DB.First(&defect, defectID).Error; err != nil {
		abortWithError(c, http.StatusNotFound, "Defect not found")
		return
	}

	var attachments []models.Attachment
	ac.DB.
		Select("id", "file_name", "mime_type", "file_size", "defect_id", "comment_id", "created_at").
		Where("defect_id = ?", defectID).
		Order("created_at ASC").
		Find(&attachments)

	c.JSON(http.StatusOK, attachments)
}

func queryOrFormUint(c *gin.Context, name string) uint {
	if v := queryUint(c, name); v != 0 {
		return v
	}
	var parsed uint
	if raw := c.PostForm(name); raw != "" {
		fmt.Sscanf(raw, "%d", &parsed)
	}
	return parsed
}
