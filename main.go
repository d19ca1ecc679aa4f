package main

import (
	"defecttrack/config"
	"defecttrack/models"
	"defecttrack/routes"
)

func main() {
	cfg := config.Load()
	db := config.ConnectDB(cfg)
	db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.BuildingObject{},
		&models.Stage{},
		&models.Defect{},
		&models.Comment{},
		&models.Attachment{},
		&models.DefectHistory{},
	)
	r := routes.SetupRouter(db)
	r.Run(cfg.ListenAddr)
}
