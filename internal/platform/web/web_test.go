package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/metrics"
	"passwordCrackerEngine/internal/port"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	active   []string
	progress map[string]domain.Progress
	sessions map[string]domain.Session
	stopped  []string
	filter   port.SessionFilter
}

func (f *fakeService) ActiveSessions() []string { return f.active }

func (f *fakeService) Progress(id string) (domain.Progress, error) {
	p, ok := f.progress[id]
	if !ok {
		return domain.Progress{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return p, nil
}

func (f *fakeService) StopSession(id string) error {
	if _, ok := f.progress[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeService) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeService) ListSessions(_ context.Context, filter port.SessionFilter) ([]domain.Session, error) {
	f.filter = filter
	var out []domain.Session
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func newFake() *fakeService {
	return &fakeService{
		active: []string{"a"},
		progress: map[string]domain.Progress{
			"a": {Dispatched: 42, Total: 100, HasTotal: true, Fraction: 0.42},
		},
		sessions: map[string]domain.Session{
			"done": {ID: "done", Status: domain.StatusComplete, Password: domain.Candidate("secret")},
		},
	}
}

func serve(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	svc := newFake()
	router := NewRouter(NewWebHandler(svc), nil, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		check    func(t *testing.T, body []byte)
	}{
		{
			name: "active sessions", method: http.MethodGet, path: "/api/session", wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp struct{ Sessions []string }
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, []string{"a"}, resp.Sessions)
			},
		},
		{
			name: "all progress", method: http.MethodGet, path: "/api/progress", wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp map[string]domain.Progress
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, uint64(42), resp["a"].Dispatched)
			},
		},
		{
			name: "one progress", method: http.MethodGet, path: "/api/progress/a", wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var p domain.Progress
				require.NoError(t, json.Unmarshal(body, &p))
				assert.Equal(t, uint64(100), p.Total)
			},
		},
		{name: "unknown progress", method: http.MethodGet, path: "/api/progress/zzz", wantCode: http.StatusNotFound},
		{name: "unknown stop", method: http.MethodPost, path: "/api/stop/zzz", wantCode: http.StatusNotFound},
		{
			name: "stored session is redacted", method: http.MethodGet, path: "/api/sessions/done", wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), `"status":"COMPLETE"`)
				assert.NotContains(t, string(body), "password")
			},
		},
		{name: "missing session", method: http.MethodGet, path: "/api/sessions/nope", wantCode: http.StatusNotFound},
		{name: "bad limit", method: http.MethodGet, path: "/api/sessions?limit=-1", wantCode: http.StatusBadRequest},
		{name: "metrics disabled", method: http.MethodGet, path: "/metrics", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, router, tt.method, tt.path)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestStopSession(t *testing.T) {
	svc := newFake()
	router := NewRouter(NewWebHandler(svc), nil, nil)

	w := serve(t, router, http.MethodPost, "/api/stop/a")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"a"}, svc.stopped)
}

func TestListSessionsFilter(t *testing.T) {
	svc := newFake()
	router := NewRouter(NewWebHandler(svc), nil, nil)

	w := serve(t, router, http.MethodGet, "/api/sessions?status=CANCELLED&limit=5&offset=2")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, port.SessionFilter{Status: domain.StatusCancelled, Limit: 5, Offset: 2}, svc.filter)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(reg)
	engineMetrics.Notify(domain.Event{Kind: domain.EventAttempt})

	router := NewRouter(NewWebHandler(newFake()), reg, nil)
	w := serve(t, router, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cracker_engine_attempts_total 1")
}

func TestServer_StartAndShutdown(t *testing.T) {
	router := NewRouter(NewWebHandler(newFake()), nil, nil)
	srv := NewServer("127.0.0.1:0", router, nil)

	addr, err := srv.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/api/session")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
}
