package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"defecttrack/models"
)

func TestProjects_CRUDAndArchive(t *testing.T) {
	env := setupTestEnv(t)

	// Engineers may not create projects.
	w := doRequest(t, env.router, http.MethodPost, "/projects",
		map[string]any{"name": "ЖК Южный"}, bearerFor(t, env.eng1))
	if w.Code != http.StatusForbidden {
		t.Fatalf("create project as engineer expected 403 got=%d", w.Code)
	}

	w = doRequest(t, env.router, http.MethodPost, "/projects",
		map[string]any{"name": "ЖК Южный"}, bearerFor(t, env.manager))
	if w.Code != http.StatusCreated {
		t.Fatalf("create project status=%d body=%s", w.Code, w.Body.String())
	}
	var created models.Project
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}

	// Partial update leaves unset fields alone.
	w = doRequest(t, env.router, http.MethodPatch, "/projects/"+itoa(created.ID),
		map[string]any{"description": "Жилой комплекс"}, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("update project status=%d body=%s", w.Code, w.Body.String())
	}
	var updated models.Project
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	if updated.Name != "ЖК Южный" {
		t.Fatalf("name clobbered by partial update: %q", updated.Name)
	}

	w = doRequest(t, env.router, http.MethodPatch, "/projects/"+itoa(created.ID)+"/archive", nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("archive project status=%d body=%s", w.Code, w.Body.String())
	}

	// Default listing hides archived projects.
	w = doRequest(t, env.router, http.MethodGet, "/projects", nil, bearerFor(t, env.eng1))
	if w.Code != http.StatusOK {
		t.Fatalf("list projects status=%d", w.Code)
	}
	var listed []models.Project
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal projects: %v", err)
	}
	for _, p := range listed {
		if p.ID == created.ID {
			t.Fatalf("archived project visible in default listing")
		}
	}

	w = doRequest(t, env.router, http.MethodGet, "/projects?include_archived=true", nil, bearerFor(t, env.eng1))
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal projects: %v", err)
	}
	found := false
	for _, p := range listed {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("archived project missing with include_archived=true")
	}

	// Deleting an empty project works; deleting one with defects does not.
	w = doRequest(t, env.router, http.MethodDelete, "/projects/"+itoa(created.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("delete empty project status=%d body=%s", w.Code, w.Body.String())
	}

	env.seedDefect(t, nil)
	w = doRequest(t, env.router, http.MethodDelete, "/projects/"+itoa(env.project.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete project with defects expected 400 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestProjects_Membership(t *testing.T) {
	env := setupTestEnv(t)

	// Role must match the membership slot.
	w := doRequest(t, env.router, http.MethodPost,
		"/projects/"+itoa(env.project.ID)+"/engineers/"+itoa(env.observer.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("assign observer as engineer expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost,
		"/projects/"+itoa(env.project.ID)+"/engineers/"+itoa(env.eng2.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("assign engineer status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost,
		"/projects/"+itoa(env.project.ID)+"/observers/"+itoa(env.observer.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("assign observer status=%d body=%s", w.Code, w.Body.String())
	}

	// eng2 can now create defects in the project.
	w = doRequest(t, env.router, http.MethodPost, "/defects", map[string]any{
		"title":              "Новый дефект",
		"description":        "Описание",
		"project_id":         env.project.ID,
		"building_object_id": env.object.ID,
		"stage_id":           env.stage.ID,
	}, bearerFor(t, env.eng2))
	if w.Code != http.StatusCreated {
		t.Fatalf("create defect after assignment status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodDelete,
		"/projects/"+itoa(env.project.ID)+"/engineers/"+itoa(env.eng2.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("remove engineer status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost, "/defects", map[string]any{
		"title":              "Еще один",
		"description":        "Описание",
		"project_id":         env.project.ID,
		"building_object_id": env.object.ID,
		"stage_id":           env.stage.ID,
	}, bearerFor(t, env.eng2))
	if w.Code != http.StatusForbidden {
		t.Fatalf("create defect after removal expected 403 got=%d", w.Code)
	}
}

func TestProjects_MyScoping(t *testing.T) {
	env := setupTestEnv(t)

	var projects []models.Project

	w := doRequest(t, env.router, http.MethodGet, "/projects/my", nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /projects/my status=%d body=%s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &projects); err != nil {
		t.Fatalf("unmarshal projects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != env.project.ID {
		t.Fatalf("manager scope projects=%d, want the seeded project", len(projects))
	}

	// Manager without memberships gets an empty array, not null.
	w = doRequest(t, env.router, http.MethodGet, "/projects/my", nil, bearerFor(t, env.manager2))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /projects/my status=%d", w.Code)
	}
	if body := w.Body.String(); body != "[]" && body != "[]\n" {
		t.Fatalf("empty scope body=%q, want []", body)
	}

	// Engineers are blocked by the route guard.
	w = doRequest(t, env.router, http.MethodGet, "/projects/my", nil, bearerFor(t, env.eng1))
	if w.Code != http.StatusForbidden {
		t.Fatalf("GET /projects/my as engineer expected 403 got=%d", w.Code)
	}
}

func TestObjectsAndStages_DeleteGuards(t *testing.T) {
	env := setupTestEnv(t)

	env.seedDefect(t, nil)

	w := doRequest(t, env.router, http.MethodDelete, "/objects/"+itoa(env.object.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete object with defects expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodDelete, "/stages/"+itoa(env.stage.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete stage with defects expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	// Fresh stage with no defects deletes fine.
	stage := models.Stage{BuildingObjectID: env.object.ID, Name: "Кровля"}
	if err := env.db.Create(&stage).Error; err != nil {
		t.Fatalf("seed stage: %v", err)
	}
	w = doRequest(t, env.router, http.MethodDelete, "/stages/"+itoa(stage.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("delete empty stage status=%d body=%s", w.Code, w.Body.String())
	}
}
