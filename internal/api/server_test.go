package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/metrics"
	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/provider"
)

type stubProvider struct {
	ds    orgraph.Dataset
	err   error
	calls int
}

func (s *stubProvider) DefaultGraph(context.Context) (*orgraph.Dataset, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	ds := s.ds.Clone()
	return &ds, nil
}

type graphBody struct {
	Nodes []struct {
		ID   string `json:"id"`
		Data struct {
			Label string `json:"label"`
		} `json:"data"`
		Style struct {
			Background string `json:"background"`
		} `json:"style"`
		Effectiveness float64 `json:"effectiveness"`
	} `json:"nodes"`
	Edges []struct {
		ID       string `json:"id"`
		Animated bool   `json:"animated"`
	} `json:"edges"`
	Metrics struct {
		TotalEmployees       int     `json:"total_pegawai"`
		TotalCollaborations  int     `json:"total_kolaborasi"`
		AverageEffectiveness float64 `json:"avg_effectiveness"`
		SiloCount            int     `json:"num_silos"`
	} `json:"metrics"`
	Employees []orgraph.Employee `json:"pegawai"`
	Report    string             `json:"report"`
	FromUnit  string             `json:"fromUnit"`
	Error     string             `json:"error"`
	Field     string             `json:"field"`
}

func newTestServer(t *testing.T, p provider.GraphProvider, origins ...string) (*Server, *metrics.Registry) {
	t.Helper()

	reg := metrics.NewRegistry()
	srv, err := New(Options{
		AllowedOrigins: origins,
		MaxBodyBytes:   4096,
		Provider:       p,
		Metrics:        reg,
		Logger:         zap.NewNop(),
	})
	require.NoError(t, err)

	return srv, reg
}

func defaultProvider() *stubProvider {
	return &stubProvider{ds: provider.DefaultDataset()}
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, graphBody) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var out graphBody
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	rec, _ := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestGetGraph(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	rec, body := do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, body.Nodes, 3)
	require.Len(t, body.Edges, 3)
	require.Len(t, body.Employees, 3)

	assert.Equal(t, "1", body.Nodes[0].ID)
	assert.Equal(t, "Anya (A)\nScore: 93", body.Nodes[0].Data.Label)
	assert.Equal(t, "#90EE90", body.Nodes[0].Style.Background)
	assert.InDelta(t, 186.0, body.Nodes[0].Effectiveness, 1e-9)
	assert.Equal(t, "e-1-2", body.Edges[0].ID)
	assert.True(t, body.Edges[0].Animated)

	assert.Equal(t, 3, body.Metrics.TotalEmployees)
	assert.Equal(t, 3, body.Metrics.TotalCollaborations)
	assert.InDelta(t, (186.0+160.0+166.0)/3, body.Metrics.AverageEffectiveness, 1e-9)
}

func TestGetGraphUsesCache(t *testing.T) {
	srv, reg := newTestServer(t, defaultProvider())

	do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")
	do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")

	assert.Equal(t, 1, srv.cache.Len())

	hit, err := reg.SnapshotCacheTotal.GetMetricWithLabelValues("hit")
	require.NoError(t, err)
	var metric dto.Metric
	require.NoError(t, hit.Write(&metric))
	assert.Equal(t, 1.0, metric.Counter.GetValue())
}

func TestGetGraphProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "unreachable",
			err:    &provider.Error{Provider: "http", Err: context.DeadlineExceeded},
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "status passthrough",
			err:    &provider.Error{Provider: "http", Status: http.StatusNotFound, Message: "graph missing"},
			status: http.StatusNotFound,
		},
		{
			name:   "unknown failure",
			err:    context.Canceled,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubProvider{err: tt.err})

			rec, body := do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")
			require.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetGraphProviderStatusMessageVerbatim(t *testing.T) {
	srv, reg := newTestServer(t, &stubProvider{err: &provider.Error{Provider: "http", Status: 502, Message: "upstream down"}})

	rec, body := do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream down", body.Error)

	counter, err := reg.ProviderErrorTotal.GetMetricWithLabelValues("http")
	require.NoError(t, err)
	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	assert.Equal(t, 1.0, metric.Counter.GetValue())
}

func TestGetGraphInvalidProviderGraphIsBadGateway(t *testing.T) {
	perr := &provider.Error{
		Provider: "http",
		Status:   http.StatusOK,
		Message:  "decoding graph",
		Err:      &orgraph.ValidationError{Field: "pegawai", Reason: "expected a list"},
	}
	srv, reg := newTestServer(t, &stubProvider{err: perr})

	for _, path := range []string{"/api/nakhoda/get-graph", "/api/nakhoda/simulate-move"} {
		method, body := http.MethodGet, ""
		if path == "/api/nakhoda/simulate-move" {
			method, body = http.MethodPost, `{"pegawaiId": "1", "targetUnit": "B"}`
		}

		rec, out := do(t, srv, method, path, body)
		require.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.Contains(t, out.Error, "provider returned an invalid graph")
		assert.Empty(t, out.Field, "an upstream field must not look like a request field")
	}

	counter, err := reg.ProviderErrorTotal.GetMetricWithLabelValues("http")
	require.NoError(t, err)
	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	assert.Equal(t, 2.0, metric.Counter.GetValue())
}

func TestGetGraphMalformedUpstreamDocument(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pegawai": "oops"}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, provider.NewClient(upstream.URL, "", time.Second, nil))

	rec, body := do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, body.Field)
}

func TestLoadCustomGraph(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	payload := `{
		"pegawaiData": [{"id": 10, "nama": "Eka", "jabatan": "Analis", "unit": "IT", "skor_potensi": 60, "skor_kinerja": 40}],
		"kolaborasiData": "[]"
	}`
	rec, body := do(t, srv, http.MethodPost, "/api/nakhoda/load-custom-graph", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, body.Nodes, 1)
	assert.Equal(t, "10", body.Nodes[0].ID)
	assert.Equal(t, "Eka (IT)\nScore: 48", body.Nodes[0].Data.Label)
	assert.Equal(t, "#F08080", body.Nodes[0].Style.Background)
	assert.Empty(t, body.Edges)
}

func TestLoadCustomGraphRejectsUnknownEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	payload := `{
		"pegawaiData": "[{\"id\": \"1\", \"nama\": \"Anya\", \"unit\": \"A\"}]",
		"kolaborasiData": [{"source": "1", "target": "9"}]
	}`
	rec, body := do(t, srv, http.MethodPost, "/api/nakhoda/load-custom-graph", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body.Error)
}

func TestLoadCustomGraphInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	rec, body := do(t, srv, http.MethodPost, "/api/nakhoda/load-custom-graph", `{"pegawaiData":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid json", body.Error)
}

func TestBodyLimit(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	big := `{"pegawaiData": "` + strings.Repeat("x", 8192) + `"}`
	rec, _ := do(t, srv, http.MethodPost, "/api/nakhoda/load-custom-graph", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSimulateMoveFallsBackToDefault(t *testing.T) {
	p := defaultProvider()
	srv, reg := newTestServer(t, p)

	rec, body := do(t, srv, http.MethodPost, "/api/nakhoda/simulate-move",
		`{"pegawaiId": 3, "targetUnit": "A", "pegawaiList": [], "kolaborasiList": []}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "SDM", body.FromUnit)
	assert.Contains(t, body.Report, "Citra")

	moved, ok := orgraph.Dataset{Employees: body.Employees}.Find("3")
	require.True(t, ok)
	assert.Equal(t, "A", moved.Unit)

	counter, err := reg.SimulationsTotal.GetMetricWithLabelValues("unchanged")
	require.NoError(t, err)
	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	assert.Equal(t, 1.0, metric.Counter.GetValue())
}

func TestSimulateMoveWithSuppliedLists(t *testing.T) {
	p := defaultProvider()
	srv, _ := newTestServer(t, p)

	payload := `{
		"pegawaiId": "b",
		"targetUnit": "Ops",
		"pegawaiList": [
			{"id": "a", "nama": "Ari", "unit": "IT", "skor_potensi": 50, "skor_kinerja": 50},
			{"id": "b", "nama": "Bayu", "unit": "IT", "skor_potensi": 50, "skor_kinerja": 50}
		],
		"kolaborasiList": [{"source": "a", "target": "b"}]
	}`
	rec, body := do(t, srv, http.MethodPost, "/api/nakhoda/simulate-move", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Zero(t, p.calls)
	assert.Len(t, body.Nodes, 2)
	assert.Equal(t, "IT", body.FromUnit)
}

func TestSimulateMoveErrors(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	rec, body := do(t, srv, http.MethodPost, "/api/nakhoda/simulate-move", `{"pegawaiId": "", "targetUnit": "A"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body.Error)

	rec, _ = do(t, srv, http.MethodPost, "/api/nakhoda/simulate-move", `{"pegawaiId": "99", "targetUnit": "A"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	rec, _ := do(t, srv, http.MethodGet, "/api/nakhoda/simulate-move", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider(), "http://localhost:5173")

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/nakhoda/simulate-move", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://localhost:5173")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://evil.example")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, defaultProvider())

	do(t, srv, http.MethodGet, "/api/nakhoda/get-graph", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `navigara_http_requests_total{method="GET",path="GET /api/nakhoda/get-graph",status="200"} 1`)
}
