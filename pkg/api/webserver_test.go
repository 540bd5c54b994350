package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/metrics"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatCourt = `{"points": [
    {"x": 89, "y": 146}, {"x": 1189, "y": 150}, {"x": 89, "y": 509}, {"x": 1189, "y": 508},
    {"x": 225, "y": 149}, {"x": 225, "y": 507}, {"x": 1045, "y": 151}, {"x": 1045, "y": 507},
    {"x": 225, "y": 190}, {"x": 1045, "y": 189}, {"x": 225, "y": 364}, {"x": 1045, "y": 365},
    {"x": 634, "y": 195}, {"x": 634, "y": 363}
]}`

const rawCourtYAML = `points:
  - {x: 387, y: 146}
  - {x: 877, y: 150}
  - {x: 89, y: 509}
  - {x: 1189, y: 508}
  - {x: 448, y: 149}
  - {x: 225, y: 507}
  - {x: 819, y: 151}
  - {x: 1045, y: 507}
  - {x: 424, y: 190}
  - {x: 841, y: 189}
  - {x: 318, y: 364}
  - {x: 952, y: 365}
  - {x: 632, y: 195}
  - {x: 634, y: 363}
`

const brokenCourt = `{"points": [
    {"x": 89, "y": 146}, {"x": 1189, "y": 150}, {"x": 89, "y": 509}, {"x": 1189, "y": 508},
    null, {"x": 225, "y": 507}, {"x": 1045, "y": 151}, {"x": 1045, "y": 507},
    {"x": 225, "y": 190}, {"x": 1045, "y": 189}, {"x": 225, "y": 364}, {"x": 1045, "y": 365},
    {"x": 634, "y": 195}, {"x": 634, "y": 363}
]}`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *viper.Viper) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "center_court.json"), []byte(flatCourt), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "court_2.yaml"), []byte(rawCourtYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(brokenCourt), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a court"), 0644))

	v := viper.New()
	utils.SetDefaults(v)
	v.Set(utils.KeyCalibrationsDir, dir)

	return SetRouter(v, metrics.New()), v
}

func decide(t *testing.T, r http.Handler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/Decide", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestCalibrations(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/Calibrations", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.ElementsMatch(t, []string{"center_court", "court_2", "broken"}, names)
}

func TestCourt(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/Court?name=center_court", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got courtResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.InDelta(t, 262.2, got.NetY, 1e-9)
	assert.Equal(t, 149.0, got.YMin)
	assert.Equal(t, 507.0, got.YMax)
	assert.True(t, got.Doubles)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/Court", nil))
	assert.Equal(t, http.StatusNotAcceptable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/Court?name=..%2Fsecret", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecide(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		body string
		in   bool
	}{
		{`{"calibration": "center_court", "x": 500, "y": 200, "player": "bottom_player"}`, true},
		{`{"calibration": "center_court", "x": 200, "y": 100, "player": "bottom_player"}`, false},
		{`{"calibration": "center_court", "x": 600, "y": 500, "player": "top_player"}`, true},
		{`{"calibration": "center_court", "x": 1200, "y": 400, "player": "top_player"}`, false},
		{`{"calibration": "center_court", "x": 600, "y": 500}`, true}, //judge.default_player is all
	}

	for _, tt := range tests {
		w, out := decide(t, r, tt.body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, tt.in, out["in"], tt.body)
		assert.NotEmpty(t, out["requestId"])
		assert.Equal(t, out["requestId"], w.Header().Get(RequestIDHeader))
	}
}

func TestDecide_Doubles(t *testing.T) {
	r, v := newTestRouter(t)

	//between the singles and the doubles left sidelines, south of the net
	body := `{"calibration": "center_court", "x": 150, "y": 300, "player": "top_player"%s}`

	_, out := decide(t, r, fmt.Sprintf(body, ""))
	assert.Equal(t, false, out["in"])

	w, out := decide(t, r, fmt.Sprintf(body, `, "doubles": true`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["in"])
	assert.Equal(t, 89.0, out["leftX"])

	singlesOnly := `{"points": [
    null, null, null, null,
    {"x": 225, "y": 149}, {"x": 225, "y": 507}, {"x": 1045, "y": 151}, {"x": 1045, "y": 507},
    null, null, null, null,
    {"x": 634, "y": 195}, {"x": 634, "y": 363}
]}`
	dir := v.GetString(utils.KeyCalibrationsDir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "singles_only.json"), []byte(singlesOnly), 0644))

	w, out = decide(t, r, `{"calibration": "singles_only", "x": 150, "y": 300, "doubles": true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, out["error"])

	w, _ = decide(t, r, `{"calibration": "singles_only", "x": 600, "y": 300}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDecide_Unstretch(t *testing.T) {
	r, v := newTestRouter(t)

	//the raw north-left sideline passes x=441 at this height, the unstretched one x=225
	body := `{"calibration": "court_2", "x": 300, "y": 160, "player": "bottom_player"}`

	_, out := decide(t, r, body)
	assert.Equal(t, false, out["in"])

	v.Set(utils.KeyUnstretch, true)
	_, out = decide(t, r, body)
	assert.Equal(t, true, out["in"])
}

func TestDecide_Errors(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{"calibration": `, http.StatusBadRequest},
		{"missing y", `{"calibration": "center_court", "x": 1}`, http.StatusBadRequest},
		{"unknown player", `{"calibration": "center_court", "x": 1, "y": 1, "player": "umpire"}`, http.StatusBadRequest},
		{"unknown calibration", `{"calibration": "court_9", "x": 1, "y": 1}`, http.StatusNotFound},
		{"invalid calibration", `{"calibration": "broken", "x": 1, "y": 1}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := decide(t, r, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestRequestIDIsKept(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/Calibrations", nil)
	req.Header.Set(RequestIDHeader, "bounce-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "bounce-42", w.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	decide(t, r, `{"calibration": "center_court", "x": 500, "y": 200, "player": "bottom_player"}`)
	decide(t, r, `{"calibration": "center_court", "x": 500, "y": 200, "player": "bottom_player"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `line_judge_decisions_total{in="true",player="bottom_player"} 2`), body)
	assert.True(t, strings.Contains(body, `line_judge_court_model_cache_total{result="hit"} 1`), body)
	assert.True(t, strings.Contains(body, `line_judge_court_model_cache_total{result="miss"} 1`), body)
}
