package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"defecttrack/constants"
	"defecttrack/middleware"
	"defecttrack/models"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportController exports defects from the caller's manager/observer
// projects as CSV or Excel.
type ReportController struct {
	DB *gorm.DB
}

var reportHeaders = []string{
	"ID",
	"Название",
	"Описание",
	"Статус",
	"Приоритет",
	"Проект",
	"Объект",
	"Этап",
	"Автор",
	"Исполнитель",
	"Плановая дата",
	"Комментариев",
	"Вложений",
	"Создан",
	"Обновлен",
}

func (rc *ReportController) fetchExportDefects(c *gin.Context) ([]models.Defect, map[uint]int64, map[uint]int64, bool) {
	scope, err := utils.ProjectScopeForRole(rc.DB, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return nil, nil, nil, false
	}
	if len(scope) == 0 {
		return nil, nil, nil, true
	}

	q := rc.DB.
		Preload("Project").
		Preload("BuildingObject").
		Preload("Stage").
		Preload("Author").
		Preload("Assignee").
		Where("project_id IN ?", scope)

	if status := c.Query("status"); status != "" {
		if !constants.ValidDefectStatus(status) {
			abortWithError(c, http.StatusBadRequest, "Invalid status: "+status)
			return nil, nil, nil, false
		}
		q = q.Where("status = ?", status)
	}
	if priority := c.Query("priority"); priority != "" {
		if !constants.ValidDefectPriority(priority) {
			abortWithError(c, http.StatusBadRequest, "Invalid priority: "+priority)
			return nil, nil, nil, false
		}
		q = q.Where("priority = ?", priority)
	}
	if projectID := queryUint(c, "project_id"); projectID != 0 {
		q = q.Where("project_id = ?", projectID)
	}
	if objectID := queryUint(c, "building_object_id"); objectID != 0 {
		q = q.Where("building_object_id = ?", objectID)
	}
	if assigneeID := queryUint(c, "assignee_id"); assigneeID != 0 {
		q = q.Where("assignee_id = ?", assigneeID)
	}
	if from := queryTime(c, "date_from"); from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to := queryTime(c, "date_to"); to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	var defects []models.Defect
	if err := q.Order("created_at DESC").Find(&defects).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return nil, nil, nil, false
	}

	ids := make([]uint, 0, len(defects))
	for _, d := range defects {
		ids = append(ids, d.ID)
	}

	commentCounts := make(map[uint]int64)
	attachmentCounts := make(map[uint]int64)
	if len(ids) > 0 {
		type countRow struct {
			DefectID uint
			Count    int64
		}

		var rows []countRow
		rc.DB.Model(&models.Comment{}).
			Select("defect_id, COUNT(*) AS count").
			Where("defect_id IN ?", ids).
			Group("defect_id").
			Scan(&rows)
		for _, row := range rows {
			commentCounts[row.DefectID] = row.Count
		}

		rows = nil
		rc.DB.Model(&models.Attachment{}).
			Select("defect_id, COUNT(*) AS count").
			Where("defect_id IN ?", ids).
			Group("defect_id").
			Scan(&rows)
		for _, row := range rows {
			attachmentCounts[row.DefectID] = row.Count
		}
	}

	return defects, commentCounts, attachmentCounts, true
}

func reportRow(d models.Defect, comments, attachments int64) []string {
	projectName := ""
	if d.Project != nil {
		projectName = d.Project.Name
	}
	objectName := ""
	if d.BuildingObject != nil {
		objectName = d.BuildingObject.Name
	}
	stageName := ""
	if d.Stage != nil {
		stageName = d.Stage.Name
	}
	authorName := ""
	if d.Author != nil {
		authorName = d.Author.LastName + " " + d.Author.FirstName
	}
	assigneeName := "Не назначено"
	if d.Assignee != nil {
		assigneeName = d.Assignee.LastName + " " + d.Assignee.FirstName
	}
	plannedDate := ""
	if d.PlannedDate != nil {
		plannedDate = d.PlannedDate.Format("02.01.2006")
	}

	return []string{
		strconv.FormatUint(uint64(d.ID), 10),
		d.Title,
		d.Description,
		constants.StatusLabel(d.Status),
		constants.PriorityLabel(d.Priority),
		projectName,
		objectName,
		stageName,
		authorName,
		assigneeName,
		plannedDate,
		strconv.FormatInt(comments, 10),
		strconv.FormatInt(attachments, 10),
		d.CreatedAt.Format("02.01.2006"),
		d.UpdatedAt.Format("02.01.2006"),
	}
}

func (rc *ReportController) ExportCSV(c *gin.Context) {
	defects, commentCounts, attachmentCounts, ok := rc.fetchExportDefects(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="defects.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(reportHeaders)
	for _, d := range defects {
		_ = w.Write(reportRow(d, commentCounts[d.ID], attachmentCounts[d.ID]))
	}
	w.Flush()
}

func (rc *ReportController) ExportExcel(c *gin.Context) {
	defects, commentCounts, attachmentCounts, ok := rc.fetchExportDefects(c)
	if !ok {
		return
	}

	const sheet = "Дефекты"

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "O1", headerStyle)
	}
	_ = f.SetColWidth(sheet, "B", "C", 35)
	_ = f.SetColWidth(sheet, "F", "J", 25)

	for i, d := range defects {
		row := reportRow(d, commentCounts[d.ID], attachmentCounts[d.ID])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if col == 0 {
				_ = f.SetCellValue(sheet, cell, d.ID)
			} else {
				_ = f.SetCellValue(sheet, cell, value)
			}
		}
	}

	_ = f.AutoFilter(sheet, "A1:O1", nil)

	buf, err := f.WriteToBuffer()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="defects.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
