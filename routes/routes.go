package routes

import (
	"defecttrack/constants"
	"defecttrack/controllers"
	"defecttrack/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	authController := controllers.AuthController{DB: db}
	userController := controllers.UserController{DB: db}
	projectController := controllers.ProjectController{DB: db}
	buildingController := controllers.BuildingController{DB: db}
	defectController := controllers.DefectController{DB: db}
	commentController := controllers.CommentController{DB: db}
	attachmentController := controllers.AttachmentController{DB: db}
	analyticsController := controllers.AnalyticsController{DB: db}
	reportController := controllers.ReportController{DB: db}

	r.POST("/auth/register", authController.Register)
	r.POST("/auth/login", authController.Login)

	api := r.Group("/", middleware.AuthMiddleware())

	users := api.Group("/users", middleware.RoleMiddleware(constants.RoleManager))
	users.GET("", userController.GetUsers)
	users.GET("/engineers", userController.GetEngineers)

	projects := api.Group("/projects")
	projects.GET("", projectController.GetProjects)
	projects.GET("/my", middleware.RoleMiddleware(constants.RoleManager, constants.RoleObserver), projectController.GetMyProjects)
	projects.GET("/:id", projectController.GetProject)

	projectAdmin := projects.Group("", middleware.RoleMiddleware(constants.RoleManager))
	projectAdmin.POST("", projectController.CreateProject)
	projectAdmin.PATCH("/:id", projectController.UpdateProject)
	projectAdmin.PATCH("/:id/archive", projectController.ArchiveProject)
	projectAdmin.DELETE("/:id", projectController.DeleteProject)
	projectAdmin.POST("/:id/managers/:userId", projectController.AssignManager)
	projectAdmin.DELETE("/:id/managers/:userId", projectController.RemoveManager)
	projectAdmin.POST("/:id/observers/:userId", projectController.AssignObserver)
	projectAdmin.DELETE("/:id/observers/:userId", projectController.RemoveObserver)
	projectAdmin.POST("/:id/engineers/:userId", projectController.AssignEngineer)
	projectAdmin.DELETE("/:id/engineers/:userId", projectController.RemoveEngineer)

	objects := api.Group("/objects")
	objects.GET("/:id", buildingController.GetObject)
	objectAdmin := objects.Group("", middleware.RoleMiddleware(constants.RoleManager))
	objectAdmin.POST("", buildingController.CreateObject)
	objectAdmin.PATCH("/:id", buildingController.UpdateObject)
	objectAdmin.DELETE("/:id", buildingController.DeleteObject)

	stages := api.Group("/stages")
	stages.GET("/:id", buildingController.GetStage)
	stageAdmin := stages.Group("", middleware.RoleMiddleware(constants.RoleManager))
	stageAdmin.POST("", buildingController.CreateStage)
	stageAdmin.PATCH("/:id", buildingController.UpdateStage)
	stageAdmin.DELETE("/:id", buildingController.DeleteStage)

	defects := api.Group("/defects")
	defects.GET("", defectController.GetDefects)
	defects.GET("/my-tasks", defectController.GetMyTasks)
	defects.GET("/assigned", defectController.GetAssignedDefects)
	defects.GET("/created", defectController.GetCreatedDefects)
	defects.GET("/my-projects", middleware.RoleMiddleware(constants.RoleManager, constants.RoleObserver), defectController.GetProjectScopedDefects)
	defects.GET("/:id", defectController.GetDefect)
	defects.GET("/:id/history", defectController.GetDefectHistory)
	defects.GET("/:id/comments", commentController.GetDefectComments)
	defects.GET("/:id/attachments", attachmentController.GetDefectAttachments)
	defects.POST("", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), defectController.CreateDefect)
	defects.PATCH("/:id", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), defectController.UpdateDefect)
	defects.PATCH("/:id/status", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), defectController.UpdateDefectStatus)
	defects.PATCH("/:id/assign/:assigneeId", middleware.RoleMiddleware(constants.RoleManager), defectController.AssignDefect)
	defects.POST("/:id/additional-assignees", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), defectController.AddAdditionalAssignees)

	comments := api.Group("/comments")
	comments.POST("", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), commentController.CreateComment)
	comments.PATCH("/:id", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), commentController.UpdateComment)
	comments.DELETE("/:id", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), commentController.DeleteComment)

	attachments := api.Group("/attachments")
	attachments.GET("/:id", attachmentController.DownloadAttachment)
	attachments.POST("", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), attachmentController.UploadAttachment)
	attachments.DELETE("/:id", middleware.RoleMiddleware(constants.RoleEngineer, constants.RoleManager), attachmentController.DeleteAttachment)

	analytics := api.Group("/analytics", middleware.RoleMiddleware(constants.RoleManager, constants.RoleObserver))
	analytics.GET("/overview", analyticsController.Overview)
	analytics.GET("/overdue", analyticsController.Overdue)
	analytics.GET("/by-assignee", analyticsController.ByAssignee)
	analytics.GET("/by-location", analyticsController.ByLocation)
	analytics.GET("/trends", analyticsController.Trends)

	reports := api.Group("/reports", middleware.RoleMiddleware(constants.RoleManager, constants.RoleObserver))
	reports.GET("/defects/csv", reportController.ExportCSV)
	reports.GET("/defects/excel", reportController.ExportExcel)

	return r
}
