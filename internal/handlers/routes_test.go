package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories/mock"
)

func newTestRouter(t *testing.T, repo *mock.ActivityLogRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	SetupMiddleware(router, testLogger(), 1<<20)
	SetupRoutes(router, &RouterConfig{
		Dispatcher:  newTestDispatcher(repo, &stubGenerator{}, false),
		StoreDriver: "sqlite",
	})
	return router
}

func TestRoutes_ActionEndpoint(t *testing.T) {
	repo := mock.NewActivityLogRepository(models.NewActivityLogEntry(1, 1))
	router := newTestRouter(t, repo)

	for _, path := range []string{"/api", "/.netlify/functions/api"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"action":"getData"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != contentTypeJSON {
				t.Errorf("Content-Type = %s", ct)
			}

			var rows []map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil || len(rows) != 1 {
				t.Errorf("body = %s, err = %v", w.Body.String(), err)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, mock.NewActivityLogRepository())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if w.Body.String() != "Method Not Allowed" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRoutes_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupMiddleware(router, testLogger(), 16)
	SetupRoutes(router, &RouterConfig{Dispatcher: newTestDispatcher(mock.NewActivityLogRepository(), &stubGenerator{}, false)})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"action":"getData","pad":"xxxxxxxx"}`)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestRoutes_MethodCheckedBeforeBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupMiddleware(router, testLogger(), 16)
	SetupRoutes(router, &RouterConfig{Dispatcher: newTestDispatcher(mock.NewActivityLogRepository(), &stubGenerator{}, false)})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, "/api", strings.NewReader(`{"action":"getData","pad":"xxxxxxxx"}`)))

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", w.Code)
			}
			if w.Body.String() != "Method Not Allowed" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestRoutes_Health(t *testing.T) {
	router := newTestRouter(t, mock.NewActivityLogRepository())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var health models.HealthCheck
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if health.Status != "healthy" || health.Services["store"] != "sqlite" || health.Services["generation"] != "not_configured" {
		t.Errorf("health = %+v", health)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	router := newTestRouter(t, mock.NewActivityLogRepository())

	// One dispatched request so the action counters have a sample
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"action":"getData"}`)))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "activity_log_api_") {
		t.Error("metrics output has no activity_log_api series")
	}
}
