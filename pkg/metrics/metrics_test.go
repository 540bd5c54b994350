package metrics

import (
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ court.Observer = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	r := New()

	r.Decision("bottom_player", true)
	r.Decision("bottom_player", true)
	r.Decision("top_player", false)
	r.CacheMiss()
	r.CacheHit()
	r.CacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.decisions.WithLabelValues("bottom_player", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("top_player", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cache.WithLabelValues("miss")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.Decision("all", true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := ioutil.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `line_judge_decisions_total{in="true",player="all"} 1`)
}
