package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinicdesk/internal/clinicapi"
	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinicdesk/internal/http/middleware"
	"github.com/wolfman30/clinicdesk/internal/observability/metrics"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

const labResultsBody = `{"success":true,"data":[
	{"id":1,"result":"negative","result_date":"2026-10-19","created_at":"2026-10-19T08:00:00Z","lab_test":{"id":4,"patient_id":7,"test_name":"Malaria RDT","patient":{"id":7,"first_name":"Ann","last_name":"K"}}},
	{"id":2,"result":"positive","result_date":"2026-10-18","created_at":"2026-10-18T08:00:00Z","lab_test":{"id":5,"patient_id":8,"test_name":"Widal","patient":{"id":8,"first_name":"Ben","last_name":"O"}}}
]}`

type testEnv struct {
	router  http.Handler
	store   session.Store
	backend *atomic.Int32
}

func newTestEnv(t *testing.T, loggedIn bool, backend http.HandlerFunc) testEnv {
	t.Helper()

	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		backend(w, r)
	}))
	t.Cleanup(ts.Close)

	store := session.NewMemoryStore()
	if loggedIn {
		if err := store.Save(context.Background(), &session.Session{
			Token: "tok",
			User: session.User{
				ID:          2,
				Name:        "Nurse Wanjiru",
				Roles:       []session.Role{{Name: "nurse"}},
				Permissions: []string{"view users"},
			},
		}); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewGatewayMetrics(reg)
	gw, err := gateway.New(gateway.Config{BaseURL: ts.URL + "/api", Sessions: store, Logger: logger, Metrics: m})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	svc, err := clinicapi.NewService(gw)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	cfg := &Config{
		Logger:             logger,
		Console:            handlers.NewConsoleHandler(store, svc, logger, m),
		Sessions:           store,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimiter:        httpmiddleware.NewRateLimiter(100, 100),
	}
	return testEnv{router: New(cfg), store: store, backend: &hits}
}

func jsonBackend(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, false, jsonBackend(http.StatusOK, `{}`))

	rr := do(t, env.router, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, false, jsonBackend(http.StatusOK, labResultsBody))

	for _, path := range []string{"/menu", "/lab-results/grouped", "/lab-tests/grouped", "/patients/7/summary"} {
		rr := do(t, env.router, http.MethodGet, path, "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
		var resp map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if resp["redirect"] != "/login" || resp["error"] != "login required" {
			t.Fatalf("%s: unexpected body %v", path, resp)
		}
	}
	if n := env.backend.Load(); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
}

func TestRouterMenuFiltersByPermission(t *testing.T) {
	env := newTestEnv(t, true, jsonBackend(http.StatusOK, `{}`))

	rr := do(t, env.router, http.MethodGet, "/menu", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		User  string `json:"user"`
		Links []struct {
			Label string `json:"label"`
			Path  string `json:"path"`
		} `json:"links"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User != "Nurse Wanjiru" {
		t.Errorf("unexpected user %q", resp.User)
	}
	if len(resp.Links) != 1 || resp.Links[0].Path != "/users" {
		t.Fatalf("expected only the users link, got %+v", resp.Links)
	}
}

type groupedResponse struct {
	Kind  string `json:"kind"`
	Dates []struct {
		Date     string `json:"date"`
		Expanded bool   `json:"expanded"`
		Patients []struct {
			Key      string            `json:"key"`
			Name     string            `json:"name"`
			Expanded bool              `json:"expanded"`
			Records  []json.RawMessage `json:"records"`
		} `json:"patients"`
	} `json:"dates"`
}

func TestRouterLabResultsGroupedAndExpand(t *testing.T) {
	env := newTestEnv(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/lab-results" {
			t.Errorf("unexpected backend path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
		jsonBackend(http.StatusOK, labResultsBody)(w, r)
	})

	rr := do(t, env.router, http.MethodGet, "/lab-results/grouped", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp groupedResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Dates) != 2 || resp.Dates[0].Date != "2026-10-19" || resp.Dates[1].Date != "2026-10-18" {
		t.Fatalf("unexpected dates %+v", resp.Dates)
	}
	if !resp.Dates[0].Expanded || !resp.Dates[0].Patients[0].Expanded {
		t.Fatalf("expected most recent date and first patient expanded")
	}
	if resp.Dates[1].Expanded {
		t.Fatalf("expected older date collapsed")
	}
	if len(resp.Dates[0].Patients[0].Records) != 1 {
		t.Fatalf("expected one record for Ann")
	}

	rr = do(t, env.router, http.MethodPost, "/lab-results/expand", `{"key":"2026-10-19"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expand: expected 200, got %d", rr.Code)
	}
	var toggled struct {
		Expanded bool     `json:"expanded"`
		Patients []string `json:"expanded_patients"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&toggled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if toggled.Expanded || len(toggled.Patients) != 0 {
		t.Fatalf("expected date collapse to cascade, got %+v", toggled)
	}

	do(t, env.router, http.MethodPost, "/lab-results/expand", `{"key":"2026-10-18"}`)
	rr = do(t, env.router, http.MethodGet, "/lab-results/grouped", "")
	resp = groupedResponse{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Dates[0].Expanded || !resp.Dates[1].Expanded {
		t.Fatalf("expected toggles to survive the rebuild, got %+v", resp.Dates)
	}
}

func TestRouterExpandRejectsUnknownKindAndBadBody(t *testing.T) {
	env := newTestEnv(t, true, jsonBackend(http.StatusOK, `[]`))

	if rr := do(t, env.router, http.MethodPost, "/patients/expand", `{"key":"2026-10-19"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := do(t, env.router, http.MethodPost, "/lab-tests/expand", `not json`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := do(t, env.router, http.MethodPost, "/lab-tests/expand", `{"key":" "}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRouterBackendRejectionClearsSession(t *testing.T) {
	env := newTestEnv(t, true, jsonBackend(http.StatusUnauthorized, `{"message":"Unauthenticated."}`))

	rr := do(t, env.router, http.MethodGet, "/lab-tests/grouped", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if _, err := env.store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected session cleared, got %v", err)
	}
}

func TestRouterPatientSummary(t *testing.T) {
	env := newTestEnv(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/patients/9" {
			jsonBackend(http.StatusNotFound, `{"message":"Patient not found"}`)(w, r)
			return
		}
		jsonBackend(http.StatusOK, `{"data":{"id":9,"first_name":"Baby","last_name":"Auma","patient_type":"child","date_of_birth":"2020-01-01"}}`)(w, r)
	})

	rr := do(t, env.router, http.MethodGet, "/patients/9/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Patient struct {
			FirstName string `json:"first_name"`
		} `json:"patient"`
		Summary struct {
			Stage string `json:"developmental_stage"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Patient.FirstName != "Baby" || resp.Summary.Stage != "Preschooler" {
		t.Fatalf("unexpected summary %+v", resp)
	}

	rr = do(t, env.router, http.MethodGet, "/patients/10/summary", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Patient not found") {
		t.Fatalf("expected backend message, got %s", rr.Body.String())
	}
}

func TestRouterBackendDownIsBadGateway(t *testing.T) {
	env := newTestEnv(t, true, func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Errorf("expected hijacker")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	})

	rr := do(t, env.router, http.MethodGet, "/lab-tests/grouped", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if _, err := env.store.Load(context.Background()); err != nil {
		t.Fatalf("expected session kept on network failure, got %v", err)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, true, jsonBackend(http.StatusOK, `[]`))
	do(t, env.router, http.MethodGet, "/lab-tests/grouped", "")

	rr := do(t, env.router, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "clinicdesk_gateway_requests_total") {
		t.Fatalf("expected gateway metrics in output")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false, jsonBackend(http.StatusOK, `{}`))

	req := httptest.NewRequest(http.MethodOptions, "/lab-tests/expand", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected allow origin header")
	}
}
