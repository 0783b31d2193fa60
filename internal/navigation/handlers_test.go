package navigation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-trekhub/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newNavigationApp(f fixture, userID string) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/navigation"), f.svc, auth.WithUserID(userID))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, View) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var v View
	_ = json.NewDecoder(resp.Body).Decode(&v)
	return resp, v
}

func TestNavigationHandlers(t *testing.T) {
	f := newFixture(t)
	app := newNavigationApp(f, "user-1")

	resp, _ := doJSON(t, app, http.MethodPost, "/navigation/sessions", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for empty draft, got %d", resp.StatusCode)
	}

	body := `{"name":"Ridge","points":[{"lat":45,"lng":9},{"lat":45.01,"lng":9}]}`
	resp, v := doJSON(t, app, http.MethodPost, "/navigation/sessions", body)
	if resp.StatusCode != http.StatusCreated || v.Session.ID == "" || v.Instruction == nil {
		t.Fatalf("start: %d %+v", resp.StatusCode, v)
	}
	id := v.Session.ID

	resp, v = doJSON(t, app, http.MethodGet, "/navigation/sessions/"+id, "")
	if resp.StatusCode != http.StatusOK || v.Session.Name != "Ridge" {
		t.Fatalf("get: %d %+v", resp.StatusCode, v)
	}

	resp, v = doJSON(t, app, http.MethodPost, "/navigation/sessions/"+id+"/position", `{"lat":45.005,"lng":9}`)
	if resp.StatusCode != http.StatusOK || v.Session.Position.Lat != 45.005 {
		t.Fatalf("position: %d %+v", resp.StatusCode, v)
	}

	resp, v = doJSON(t, app, http.MethodPost, "/navigation/sessions/"+id+"/advance", "")
	if resp.StatusCode != http.StatusOK || v.Session.Step != 1 {
		t.Fatalf("advance: %d %+v", resp.StatusCode, v)
	}

	f.mock.ExpectExec(`INSERT INTO completed_hikes`).
		WithArgs(id, "user-1", "Ridge", pgxmock.AnyArg(), 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	resp, v = doJSON(t, app, http.MethodPost, "/navigation/sessions/"+id+"/advance", "")
	if resp.StatusCode != http.StatusOK || !v.Session.Completed {
		t.Fatalf("complete: %d %+v", resp.StatusCode, v)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/navigation/sessions/"+id+"/advance", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict after completion, got %d", resp.StatusCode)
	}

	stranger := newNavigationApp(f, "user-2")
	resp, _ = doJSON(t, stranger, http.MethodGet, "/navigation/sessions/"+id, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodDelete, "/navigation/sessions/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestNavigationStartFromDraftHandler(t *testing.T) {
	f := newFixture(t)
	app := newNavigationApp(f, "user-1")
	if _, err := f.routes.LoadSample(context.Background(), "user-1"); err != nil {
		t.Fatalf("load sample: %v", err)
	}

	resp, v := doJSON(t, app, http.MethodPost, "/navigation/sessions", "")
	if resp.StatusCode != http.StatusCreated || len(v.Session.Route) != 6 {
		t.Fatalf("start from draft: %d %+v", resp.StatusCode, v.Session)
	}

	resp, v = doJSON(t, app, http.MethodDelete, "/navigation/sessions/"+v.Session.ID, "")
	if resp.StatusCode != http.StatusOK || v.Session.Active {
		t.Fatalf("stop: %d %+v", resp.StatusCode, v.Session)
	}
}
