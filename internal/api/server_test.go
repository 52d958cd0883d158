package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/sqlite-integrated/database"
	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/config"
	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/logging"
	"github.com/nerrad567/sqlite-integrated/query"
)

// testServer creates a Server over an in-memory database holding a people
// table with three rows and an empty pets table.
func testServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
			CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Overview: config.OverviewConfig{MaxLen: 2},
		Logger:   log,
		DB:       db,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

// setupTestDB creates an in-memory database with a small schema.
func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.InMemory(ctx, false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	err = db.CreateTable(ctx, "people",
		database.Column{Name: "id", Type: "INTEGER", PrimaryKey: true},
		database.Column{Name: "first_name", Type: "TEXT"},
		database.Column{Name: "last_name", Type: "TEXT"},
	)
	if err != nil {
		t.Fatalf("failed to create people: %v", err)
	}
	err = db.CreateTable(ctx, "pets",
		database.Column{Name: "id", Type: "INTEGER", PrimaryKey: true},
		database.Column{Name: "name", Type: "TEXT", NotNull: true},
		database.Column{Name: "owner", Type: "INTEGER", ForeignKey: &database.ForeignKey{
			Table: "people", Column: "id", OnDelete: "CASCADE",
		}},
	)
	if err != nil {
		t.Fatalf("failed to create pets: %v", err)
	}

	for _, p := range [][2]string{{"John", "Smith"}, {"Jane", "Doe"}, {"Tom", "Builder"}} {
		_, err := db.AddEntry(ctx, "people", query.Map{"first_name": p[0], "last_name": p[1]}, false)
		if err != nil {
			t.Fatalf("failed to add person: %v", err)
		}
	}
	return db
}

// get runs a GET request through the router and decodes the JSON body.
func get(t *testing.T, srv *Server, path string, wantStatus int) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != wantStatus {
		t.Fatalf("GET %s status = %d, want %d; body: %s", path, w.Code, wantStatus, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{DB: setupTestDB(t)}); err == nil {
		t.Error("New() without logger error = nil")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() without database error = nil")
	}
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp := get(t, srv, "/api/v1/health", http.StatusOK)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestHealth_ClosedDatabase(t *testing.T) {
	srv := testServer(t)
	if err := srv.db.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	resp := get(t, srv, "/api/v1/health", http.StatusServiceUnavailable)
	if resp["status"] != "unavailable" {
		t.Errorf("status = %v, want unavailable", resp["status"])
	}
}

func TestHealth_ContentType(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	ct := w.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

func TestHealthCheck_NotStarted(t *testing.T) {
	srv := testServer(t)
	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start error = nil")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-ID")
	if len(requestID) != 36 {
		t.Errorf("X-Request-ID = %q, want a UUID", requestID)
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "http://localhost:3000", "http://localhost:3000"},
		{"other origin", "http://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t)

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/tables", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			srv.buildRouter().ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("ACAO = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestWritesNotRouted(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tables/people/1", nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRequestLog_NamesTable(t *testing.T) {
	srv := testServer(t)
	var buf bytes.Buffer
	srv.logger = logging.NewWriter(config.LoggingConfig{Format: "json"}, "test", &buf)

	get(t, srv, "/api/v1/tables/people/2", http.StatusOK)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse request log %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"msg":    "http request",
		"method": http.MethodGet,
		"table":  "people",
		"id":     "2",
		"status": float64(http.StatusOK),
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("record[%q] = %v, want %v", k, record[k], v)
		}
	}
	if route, _ := record["route"].(string); !strings.Contains(route, "{table}/{id}") {
		t.Errorf("route = %q, want the table entry pattern", route)
	}
	if n, _ := record["bytes"].(float64); n == 0 {
		t.Error("bytes = 0, want the response size")
	}
}
