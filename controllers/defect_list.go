package controllers

import (
	"net/http"
	"strings"

	"defecttrack/constants"
	"defecttrack/middleware"
	"defecttrack/models"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
)

func splitListParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDefectFilter(c *gin.Context) (utils.DefectFilter, bool) {
	f := utils.DefectFilter{
		Statuses:         splitListParam(c.QueryArray("statuses")),
		Priorities:       splitListParam(c.QueryArray("priorities")),
		AssigneeID:       queryUint(c, "assignee_id"),
		AuthorID:         queryUint(c, "author_id"),
		ProjectID:        queryUint(c, "project_id"),
		BuildingObjectID: queryUint(c, "building_object_id"),
		StageID:          queryUint(c, "stage_id"),
		CreatedFrom:      queryTime(c, "created_from"),
		CreatedTo:        queryTime(c, "created_to"),
		PlannedFrom:      queryTime(c, "planned_from"),
		PlannedTo:        queryTime(c, "planned_to"),
		Overdue:          c.Query("overdue") == "true",
		Search:           c.Query("search"),
		Page:             queryInt(c, "page", 1),
		Limit:            queryInt(c, "limit", utils.DefaultPageLimit),
	}

	for _, s := range f.Statuses {
		if !constants.ValidDefectStatus(s) {
			abortWithError(c, http.StatusBadRequest, "Invalid status: "+s)
			return f, false
		}
	}
	for _, p := range f.Priorities {
		if !constants.ValidDefectPriority(p) {
			abortWithError(c, http.StatusBadRequest, "Invalid priority: "+p)
			return f, false
		}
	}

	return f, true
}

func emptyListMeta(f utils.DefectFilter) gin.H {
	page, limit, _ := f.Pagination()
	return gin.H{
		"data": []models.Defect{},
		"meta": gin.H{
			"total":       0,
			"page":        page,
			"limit":       limit,
			"total_pages": 0,
		},
	}
}

func (dc *DefectController) respondDefectList(c *gin.Context, f utils.DefectFilter) {
	page, limit, offset := f.Pagination()

	var total int64
	if err := utils.ApplyDefectFilters(dc.DB, f).Count(&total).Error; err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var defects []models.Defect
	err := utils.ApplyDefectFilters(dc.DB, f).
		Preload("Project").
		Preload("BuildingObject").
		Preload("Stage").
		Preload("Author").
		Preload("Assignee").
		Preload("AdditionalAssignees").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&defects).Error
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	c.JSON(http.StatusOK, gin.H{
		"data": defects,
		"meta": gin.H{
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": totalPages,
		},
	})
}

// GetDefects is the generic listing: any authenticated caller, all defects
// matching the filters.
func (dc *DefectController) GetDefects(c *gin.Context) {
	f, ok := parseDefectFilter(c)
	if !ok {
		return
	}
	dc.respondDefectList(c, f)
}

// GetMyTasks lists defects the caller authored, is assigned to, or
// collaborates on as an additional assignee.
func (dc *DefectController) GetMyTasks(c *gin.Context) {
	f, ok := parseDefectFilter(c)
	if !ok {
		return
	}
	f.MineUserID = middleware.UserID(c)
	dc.respondDefectList(c, f)
}

func (dc *DefectController) GetAssignedDefects(c *gin.Context) {
	f, ok := parseDefectFilter(c)
	if !ok {
		return
	}
	f.AssigneeID = middleware.UserID(c)
	dc.respondDefectList(c, f)
}

func (dc *DefectController) GetCreatedDefects(c *gin.Context) {
	f, ok := parseDefectFilter(c)
	if !ok {
		return
	}
	f.AuthorID = middleware.UserID(c)
	dc.respondDefectList(c, f)
}

// GetProjectScopedDefects lists defects in the projects the caller manages
// or observes. An empty scope short-circuits to an empty page.
func (dc *DefectController) GetProjectScopedDefects(c *gin.Context) {
	f, ok := parseDefectFilter(c)
	if !ok {
		return
	}

	scope, err := utils.ProjectScopeForRole(dc.DB, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(scope) == 0 {
		c.JSON(http.StatusOK, emptyListMeta(f))
		return
	}

	f.ProjectScope = scope
	dc.respondDefectList(c, f)
}
