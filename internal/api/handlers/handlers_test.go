package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"grid-constraints/internal/api/models"
	"grid-constraints/internal/config"
	"grid-constraints/internal/data"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One MV line, overloaded in the feed-in case at 01:00.
const snapshotJSON = `{
  "topology": {
    "id": "d1",
    "mv_grid": {
      "id": 1, "voltage_level": "mv",
      "buses": ["B0", "B1"],
      "lines": [{"name": "L1", "bus0": "B0", "bus1": "B1", "s_nom": 1}],
      "station_buses": ["B0"]
    },
    "lv_grids": [],
    "transformers_hvmv": [{"name": "T", "bus0": "HV", "bus1": "B0", "s_nom": 40}],
    "rings": []
  },
  "results": {
    "s_res": {"index": ["2011-01-01T00:00:00Z", "2011-01-01T01:00:00Z"], "columns": ["L1"], "data": [[0.2], [1.5]]},
    "v_res": {"index": ["2011-01-01T00:00:00Z", "2011-01-01T01:00:00Z"], "columns": ["B0", "B1"], "data": [[1, 1], [1, 1]]},
    "pfa_slack": {"p": [1, 2], "q": [0, 0]}
  },
  "cases": {"index": ["2011-01-01T00:00:00Z", "2011-01-01T01:00:00Z"], "cases": ["load_case", "feed-in_case"]}
}`

const networkJSON = `{
  "id": "d1",
  "snapshots": ["2011-01-01T00:00:00Z"],
  "buses": [
    {"name": "B0", "v_nom": 20, "v_mag_pu_set": 1, "v_mag_pu_min": 0.9, "v_mag_pu_max": 1.1, "control": "Slack"},
    {"name": "B1", "v_nom": 20, "v_mag_pu_set": 1, "v_mag_pu_min": 0.9, "v_mag_pu_max": 1.1, "control": "PQ"}
  ],
  "lines": [{"name": "L1", "bus0": "B0", "bus1": "B1", "r": 0.4, "x": 0.8, "s_nom": 1}],
  "generators": [{"name": "Generator_slack", "bus": "B0", "p_nom": 10, "p_max_pu": 1}],
  "loads": [{"name": "Load_1", "bus": "B1", "p_set": 0.1}]
}`

type testServer struct {
	router *gin.Engine
	store  *data.ReportStore
	dir    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot.json"), []byte(snapshotJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "network.json"), []byte(networkJSON), 0644))

	files := &Files{DataDir: dir, Config: config.Default()}
	store := data.NewReportStore(time.Hour)
	t.Cleanup(store.Close)

	ch := NewCheckHandler(files, store, nil)
	eh := NewExportHandler(files, nil, nil)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/checks", ch.RunChecks)
	api.GET("/checks/:id", ch.GetReport)
	api.POST("/relative-load", ch.RelativeLoad)
	api.POST("/export", eh.Export)
	return &testServer{router: r, store: store, dir: dir}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestRunChecksAndGetReport(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/checks", map[string]interface{}{
		"snapshot_path": "snapshot.json",
		"include_rows":  true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.Clean)
	assert.Equal(t, 1, resp.Counts["mv_lines"])
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "L1", resp.Rows[0].Element)
	assert.Equal(t, "mv_line", resp.Rows[0].Category)

	w = s.do(t, http.MethodGet, "/api/v1/checks/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, resp.ID, got.ID)
	assert.Empty(t, got.Rows)

	w = s.do(t, http.MethodGet, "/api/v1/checks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REPORT_NOT_FOUND", decodeError(t, w).Code)
}

func TestRunChecksInlineSnapshot(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/checks", map[string]interface{}{
		"snapshot": json.RawMessage(snapshotJSON),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, s.store.Len())
}

func TestRunChecksErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/checks", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SNAPSHOT", decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/v1/checks", map[string]interface{}{"snapshot_path": "../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/checks", map[string]interface{}{
		"snapshot_path": "snapshot.json",
		"options":       map[string]interface{}{"mv_voltage_levels": "hv"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, w).Code)
}

func TestRelativeLoad(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/relative-load", map[string]interface{}{"snapshot_path": "snapshot.json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Components int `json:"components"`
		TimeSteps  int `json:"time_steps"`
		Loading    struct {
			Columns []string    `json:"columns"`
			Data    [][]float64 `json:"data"`
		} `json:"loading"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TimeSteps)
	assert.Contains(t, resp.Loading.Columns, "L1")
	assert.Contains(t, resp.Loading.Columns, "MVGrid_1_station")
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/export", map[string]interface{}{"network_path": "network.json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var pm map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pm))
	var buses map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(pm["bus"], &buses))
	assert.Len(t, buses, 2)
	assert.Contains(t, pm, "electromobility")
}

func TestExportErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/export", map[string]interface{}{
		"network_path": "network.json",
		"flexible_cps": []string{"Charging_point_9"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_COMPONENT", decodeError(t, w).Code)

	var n map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(networkJSON), &n))
	n["generators"] = []interface{}{}
	w = s.do(t, http.MethodPost, "/api/v1/export", map[string]interface{}{"network": n})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLACK_MISSING", decodeError(t, w).Code)
}
