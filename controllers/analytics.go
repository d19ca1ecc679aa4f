package controllers

import (
	"math"
	"net/http"
	"sort"
	"time"

	"defecttrack/constants"
	"defecttrack/middleware"
	"defecttrack/models"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AnalyticsController serves manager/observer dashboards. Every endpoint
// resolves the caller's project scope first and returns zero-valued results
// on an empty scope.
type AnalyticsController struct {
	DB *gorm.DB
}

func (ac *AnalyticsController) projectScope(c *gin.Context) ([]uint, bool) {
	scope, err := utils.ProjectScopeForRole(ac.DB, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return scope, true
}

func (ac *AnalyticsController) Overview(c *gin.Context) {
	scope, ok := ac.projectScope(c)
	if !ok {
		return
	}
	if len(scope) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"total":       0,
			"by_status":   gin.H{},
			"by_priority": gin.H{},
		})
		return
	}

	var total int64
	ac.DB.Model(&models.Defect{}).Where("project_id IN ?", scope).Count(&total)

	type groupRow struct {
		Key   string
		Count int64
	}

	byStatus := make(map[string]int64, len(constants.DefectStatuses))
	for _, s := range constants.DefectStatuses {
		byStatus[s] = 0
	}
	var statusRows []groupRow
	ac.DB.Model(&models.Defect{}).
		Select("status AS key, COUNT(*) AS count").
		Where("project_id IN ?", scope).
		Group("status").
		Scan(&statusRows)
	for _, row := range statusRows {
		byStatus[row.Key] = row.Count
	}

	byPriority := make(map[string]int64, len(constants.DefectPriorities))
	for _, p := range constants.DefectPriorities {
		byPriority[p] = 0
	}
	var priorityRows []groupRow
	ac.DB.Model(&models.Defect{}).
		Select("priority AS key, COUNT(*) AS count").
		Where("project_id IN ?", scope).
		Group("priority").
		Scan(&priorityRows)
	for _, row := range priorityRows {
		byPriority[row.Key] = row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"by_status":   byStatus,
		"by_priority": byPriority,
	})
}

func (ac *AnalyticsController) Overdue(c *gin.Context) {
	scope, ok := ac.projectScope(c)
	if !ok {
		return
	}
	if len(scope) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"count":      0,
			"percentage": 0,
			"defects":    []models.Defect{},
		})
		return
	}

	terminal := []string{constants.DefectStatusClosed, constants.DefectStatusCancelled}

	var overdueDefects []models.Defect
	ac.DB.
		Preload("Project").
		Preload("BuildingObject").
		Preload("Stage").
		Preload("Assignee").
		Where("project_id IN ?", scope).
		Where("planned_date < ?", time.Now()).
		Where("status NOT IN ?", terminal).
		Order("planned_date ASC").
		Find(&overdueDefects)

	var totalActive int64
	ac.DB.Model(&models.Defect{}).
		Where("project_id IN ?", scope).
		Where("status NOT IN ?", terminal).
		Count(&totalActive)

	count := len(overdueDefects)
	percentage := 0
	if totalActive > 0 {
		percentage = int(math.Round(float64(count) / float64(totalActive) * 100))
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      count,
		"percentage": percentage,
		"defects":    overdueDefects,
	})
}

type assigneeStats struct {
	Assignee interface{}    `json:"assignee"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// ByAssignee groups scoped defects per assignee in memory, with a synthetic
// unassigned bucket. Bounded by project size.
func (ac *AnalyticsController) ByAssignee(c *gin.Context) {
	scope, ok := ac.projectScope(c)
	if !ok {
		return
	}
	if len(scope) == 0 {
		c.JSON(http.StatusOK, []assigneeStats{})
		return
	}

	var defects []models.Defect
	ac.DB.
		Preload("Assignee").
		Where("project_id IN ?", scope).
		Find(&defects)

	buckets := make(map[uint]*assigneeStats)
	for _, defect := range defects {
		var key uint
		if defect.AssigneeID != nil {
			key = *defect.AssigneeID
		}

		entry, exists := buckets[key]
		if !exists {
			byStatus := make(map[string]int, len(constants.DefectStatuses))
			for _, s := range constants.DefectStatuses {
				byStatus[s] = 0
			}
			entry = &assigneeStats{ByStatus: byStatus}
			if key == 0 {
				entry.Assignee = gin.H{
					"id":         nil,
					"first_name": "Не назначено",
					"last_name":  "",
					"email":      "",
				}
			} else {
				entry.Assignee = defect.Assignee
			}
			buckets[key] = entry
		}

		entry.Total++
		entry.ByStatus[defect.Status]++
	}

	result := make([]assigneeStats, 0, len(buckets))
	for _, entry := range buckets {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Total > result[j].Total
	})

	c.JSON(http.StatusOK, result)
}

// ByLocation counts defects per building object, joined with object and
// project names.
func (ac *AnalyticsController) ByLocation(c *gin.Context) {
	scope, ok := ac.projectScope(c)
	if !ok {
		return
	}
	if len(scope) == 0 {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	type locationRow struct {
		BuildingObjectID uint
		Count            int64
	}

	var rows []locationRow
	ac.DB.Model(&models.Defect{}).
		Select("building_object_id, COUNT(*) AS count").
		Where("project_id IN ?", scope).
		Group("building_object_id").
		Scan(&rows)

	if len(rows) == 0 {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	objectIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		objectIDs = append(objectIDs, row.BuildingObjectID)
	}

	var objects []models.BuildingObject
	ac.DB.
		Preload("Project").
		Where("id IN ?", objectIDs).
		Find(&objects)

	objectByID := make(map[uint]models.BuildingObject, len(objects))
	for _, obj := range objects {
		objectByID[obj.ID] = obj
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	result := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		obj := objectByID[row.BuildingObjectID]
		entry := gin.H{
			"object": gin.H{
				"id":   obj.ID,
				"name": obj.Name,
			},
			"count": row.Count,
		}
		if obj.Project != nil {
			entry["object"].(gin.H)["project"] = gin.H{
				"id":   obj.Project.ID,
				"name": obj.Project.Name,
			}
		}
		result = append(result, entry)
	}

	c.JSON(http.StatusOK, result)
}

type trendBucket struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Closed  int    `json:"closed"`
}

// Trends buckets defect creation and closure per local calendar day over
// the last N days (inclusive of today).
func (ac *AnalyticsController) Trends(c *gin.Context) {
	scope, ok := ac.projectScope(c)
	if !ok {
		return
	}

	days := queryInt(c, "days", 30)
	if days < 1 {
		days = 30
	}

	if len(scope) == 0 {
		c.JSON(http.StatusOK, []trendBucket{})
		return
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	buckets := make([]*trendBucket, 0, days+1)
	bucketByDate := make(map[string]*trendBucket, days+1)
	for i := 0; i <= days; i++ {
		date := startDate.AddDate(0, 0, i).Format("2006-01-02")
		bucket := &trendBucket{Date: date}
		buckets = append(buckets, bucket)
		bucketByDate[date] = bucket
	}

	var created []models.Defect
	ac.DB.
		Select("created_at").
		Where("project_id IN ?", scope).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Find(&created)
	for _, defect := range created {
		if bucket, ok := bucketByDate[defect.CreatedAt.Format("2006-01-02")]; ok {
			bucket.Created++
		}
	}

	var closed []models.Defect
	ac.DB.
		Select("updated_at").
		Where("project_id IN ?", scope).
		Where("status = ?", constants.DefectStatusClosed).
		Where("updated_at >= ? AND updated_at <= ?", startDate, endDate).
		Find(&closed)
	for _, defect := range closed {
		if bucket, ok := bucketByDate[defect.UpdatedAt.Format("2006-01-02")]; ok {
			bucket.Closed++
		}
	}

	result := make([]trendBucket, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, *bucket)
	}

	c.JSON(http.StatusOK, result)
}
