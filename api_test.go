package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"defecttrack/config"
	"defecttrack/models"
	"defecttrack/routes"
	"defecttrack/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB

	manager  models.User
	manager2 models.User
	observer models.User
	eng1     models.User
	eng2     models.User

	project models.Project
	object  models.BuildingObject
	stage   models.Stage
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("JWT_SECRET", "test-secret")

	db := config.ConnectDB(config.Load())

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.BuildingObject{},
		&models.Stage{},
		&models.Defect{},
		&models.Comment{},
		&models.Attachment{},
		&models.DefectHistory{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	router := routes.SetupRouter(db)

	manager := models.User{FirstName: "Мария", LastName: "Иванова", Email: "manager@example.com", Role: "manager"}
	manager2 := models.User{FirstName: "Олег", LastName: "Сидоров", Email: "manager2@example.com", Role: "manager"}
	observer := models.User{FirstName: "Анна", LastName: "Петрова", Email: "observer@example.com", Role: "observer"}
	eng1 := models.User{FirstName: "Иван", LastName: "Смирнов", Email: "eng1@example.com", Role: "engineer"}
	eng2 := models.User{FirstName: "Петр", LastName: "Козлов", Email: "eng2@example.com", Role: "engineer"}

	for _, u := range []*models.User{&manager, &manager2, &observer, &eng1, &eng2} {
		h, err := utils.HashPassword("pass1234")
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		u.Password = h
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user %s: %v", u.Email, err)
		}
	}

	project := models.Project{Name: "ЖК Северный"}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if err := db.Model(&project).Association("Managers").Append(&manager); err != nil {
		t.Fatalf("seed project manager: %v", err)
	}
	if err := db.Model(&project).Association("Engineers").Append(&eng1); err != nil {
		t.Fatalf("seed project engineer: %v", err)
	}

	object := models.BuildingObject{ProjectID: project.ID, Name: "Корпус 1", Type: "residential"}
	if err := db.Create(&object).Error; err != nil {
		t.Fatalf("seed object: %v", err)
	}

	stage := models.Stage{BuildingObjectID: object.ID, Name: "Фундамент"}
	if err := db.Create(&stage).Error; err != nil {
		t.Fatalf("seed stage: %v", err)
	}

	return &testEnv{
		router:   router,
		db:       db,
		manager:  manager,
		manager2: manager2,
		observer: observer,
		eng1:     eng1,
		eng2:     eng2,
		project:  project,
		object:   object,
		stage:    stage,
	}
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearerFor(t *testing.T, u models.User) map[string]string {
	t.Helper()
	tok, err := utils.GenerateJWT(u)
	if err != nil {
		t.Fatalf("generate jwt: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

// seedDefect writes a defect directly, bypassing the API, so tests can
// control timestamps and status freely.
func (env *testEnv) seedDefect(t *testing.T, mutate func(*models.Defect)) models.Defect {
	t.Helper()

	d := models.Defect{
		Title:            "Трещина в стене",
		Description:      "Обнаружена трещина",
		Status:           "new",
		Priority:         "medium",
		ProjectID:        env.project.ID,
		BuildingObjectID: env.object.ID,
		StageID:          env.stage.ID,
		AuthorID:         env.manager.ID,
	}
	if mutate != nil {
		mutate(&d)
	}
	if err := env.db.Create(&d).Error; err != nil {
		t.Fatalf("seed defect: %v", err)
	}
	return d
}

func decodeDefect(t *testing.T, w *httptest.ResponseRecorder) models.Defect {
	t.Helper()
	var d models.Defect
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("unmarshal defect: %v body=%s", err, w.Body.String())
	}
	return d
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	regBody := map[string]any{
		"first_name": "Новый",
		"last_name":  "Пользователь",
		"email":      "new@example.com",
		"password":   "pass1234",
	}

	w := doRequest(t, env.router, http.MethodPost, "/auth/register", regBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		User        models.User `json:"user"`
		AccessToken string      `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal register resp: %v", err)
	}
	if resp.User.Role != "engineer" {
		t.Fatalf("registered role=%q, want engineer", resp.User.Role)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token in response")
	}

	// Same email again conflicts.
	w = doRequest(t, env.router, http.MethodPost, "/auth/register", regBody, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register expected 409 got=%d body=%s", w.Code, w.Body.String())
	}

	loginBody := map[string]any{"email": "new@example.com", "password": "pass1234"}
	w = doRequest(t, env.router, http.MethodPost, "/auth/login", loginBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}

	loginBody["password"] = "wrong"
	w = doRequest(t, env.router, http.MethodPost, "/auth/login", loginBody, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login expected 401 got=%d", w.Code)
	}
}

func TestUsers_ManagerOnly(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/users", nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /users as manager status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodGet, "/users", nil, bearerFor(t, env.eng1))
	if w.Code != http.StatusForbidden {
		t.Fatalf("GET /users as engineer expected 403 got=%d", w.Code)
	}

	w = doRequest(t, env.router, http.MethodGet, "/users/engineers", nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /users/engineers status=%d body=%s", w.Code, w.Body.String())
	}
	var engineers []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &engineers); err != nil {
		t.Fatalf("unmarshal engineers: %v", err)
	}
	for _, u := range engineers {
		if u.Role != "engineer" {
			t.Fatalf("non-engineer %q in engineers listing", u.Email)
		}
	}

	w = doRequest(t, env.router, http.MethodGet, "/users", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("GET /users without token expected 401 got=%d", w.Code)
	}
}
