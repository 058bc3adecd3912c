package banking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/congo-pay/bankjournal/internal/actor"
	"github.com/congo-pay/bankjournal/internal/journal"
	"github.com/congo-pay/bankjournal/internal/logging"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	j := journal.NewInMemory()
	registry := actor.NewRegistry(j, logging.Discard(), actor.Options{})
	t.Cleanup(func() { registry.Close(context.Background()) })

	h := NewHandler(NewService(registry, j, logging.Discard()))
	app := fiber.New()
	app.Post("/api/v1/accounts", h.Create)
	app.Get("/api/v1/accounts/:accountId", h.Get)
	app.Put("/api/v1/accounts/:accountId/balance", h.Adjust)
	app.Get("/api/v1/accounts/:accountId/events", h.Events)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	decoded := map[string]any{}
	_ = json.Unmarshal(payload, &decoded)
	return resp.StatusCode, decoded
}

func TestHandlerFlow(t *testing.T) {
	app := setupTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/v1/accounts", `{"owner":"alice","currency":"USD","initial_balance":100.0}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, body)
	}
	id, _ := body["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid id, got %q", id)
	}
	base := "/api/v1/accounts/" + id

	status, body = do(t, app, http.MethodGet, base, "")
	if status != http.StatusOK || body["balance"] != "100" {
		t.Fatalf("expected balance 100, got %d %v", status, body)
	}

	status, _ = do(t, app, http.MethodPut, base+"/balance", `{"amount":-150.0}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for overdraft, got %d", status)
	}

	status, body = do(t, app, http.MethodPut, base+"/balance", `{"amount":"-40.0"}`)
	if status != http.StatusOK || body["balance"] != "60" {
		t.Fatalf("expected balance 60, got %d %v", status, body)
	}

	status, body = do(t, app, http.MethodGet, base+"/events", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	events, _ := body["events"].([]any)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %v", body["events"])
	}
}

func TestHandlerErrors(t *testing.T) {
	app := setupTestApp(t)
	missing := "/api/v1/accounts/" + uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown account", http.MethodGet, missing, "", http.StatusNotFound},
		{"adjust unknown account", http.MethodPut, missing + "/balance", `{"amount":5}`, http.StatusNotFound},
		{"missing amount", http.MethodPut, missing + "/balance", `{}`, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/v1/accounts/abc", "", http.StatusBadRequest},
		{"uppercase id", http.MethodGet, "/api/v1/accounts/" + strings.ToUpper(uuid.NewString()), "", http.StatusBadRequest},
		{"missing owner", http.MethodPost, "/api/v1/accounts", `{"currency":"USD"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/v1/accounts", `{"owner":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := do(t, app, tt.method, tt.path, tt.body); status != tt.want {
				t.Fatalf("expected %d, got %d (%v)", tt.want, status, body)
			}
		})
	}
}
