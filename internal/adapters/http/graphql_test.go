package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/nvalera/contourcad/internal/adapters/http"
	"github.com/nvalera/contourcad/internal/core/domain"
	"github.com/nvalera/contourcad/internal/core/usecases"
)

func graphqlApp(repo *mockJobRepo) *fiber.App {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Jobs = usecases.NewJobService(repo, nil)
	})
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/graphql", handler.GraphQLHandler(deps))
	return app
}

func gqlPost(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestGraphQLJobsQuery(t *testing.T) {
	repo := &mockJobRepo{jobs: []domain.ExportJob{
		{ID: "job-1", Status: domain.JobStatusCompleted, EntityCount: 12, CRS: "EPSG:32648", CreatedAt: time.Now()},
		{ID: "job-2", Status: domain.JobStatusFailed, Error: "sampling failed for chunk 3", CreatedAt: time.Now()},
	}}
	app := graphqlApp(repo)

	out := gqlPost(t, app, `{ jobs { id status entity_count crs } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}

	data := out["data"].(map[string]any)
	jobs := data["jobs"].([]any)
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}

	first := jobs[0].(map[string]any)
	if first["id"] != "job-1" || first["status"] != "completed" {
		t.Errorf("jobs[0] = %v, want job-1/completed", first)
	}
	if first["entity_count"] != float64(12) {
		t.Errorf("entity_count = %v, want 12", first["entity_count"])
	}
	if first["crs"] != "EPSG:32648" {
		t.Errorf("crs = %v, want EPSG:32648", first["crs"])
	}
}

func TestGraphQLJobByID(t *testing.T) {
	repo := &mockJobRepo{jobs: []domain.ExportJob{
		{ID: "job-9", Status: domain.JobStatusCompleted, GridRows: 6, GridCols: 6, CreatedAt: time.Now()},
	}}
	app := graphqlApp(repo)

	out := gqlPost(t, app, `{ job(id: "job-9") { id grid_rows grid_cols } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}

	job := out["data"].(map[string]any)["job"].(map[string]any)
	if job["id"] != "job-9" {
		t.Errorf("id = %v, want job-9", job["id"])
	}
	if job["grid_rows"] != float64(6) || job["grid_cols"] != float64(6) {
		t.Errorf("grid = %vx%v, want 6x6", job["grid_rows"], job["grid_cols"])
	}
}

func TestGraphQLRejectsUnknownField(t *testing.T) {
	app := graphqlApp(&mockJobRepo{})

	out := gqlPost(t, app, `{ jobs { id secret } }`)
	if out["errors"] == nil {
		t.Fatal("expected errors for unknown field, got none")
	}
}
