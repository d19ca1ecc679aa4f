package constants

const (
	RoleEngineer = "engineer"
	RoleManager  = "manager"
	RoleObserver = "observer"
)
