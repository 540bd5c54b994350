//Package metrics exposes Prometheus counters for line calls and the court model cache.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//Recorder owns a registry and the counters registered on it. It implements court.Observer.
type Recorder struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	cache     *prometheus.CounterVec
}

//New registers the counters on a fresh registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "line_judge_decisions_total",
			Help: "Bounces judged, by player and verdict",
		}, []string{"player", "in"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "line_judge_court_model_cache_total",
			Help: "Court model cache lookups, by result",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.decisions, r.cache)
	return r
}

//Decision counts one judged bounce
func (r *Recorder) Decision(player string, in bool) {
	r.decisions.WithLabelValues(player, strconv.FormatBool(in)).Inc()
}

func (r *Recorder) CacheHit() {
	r.cache.WithLabelValues("hit").Inc()
}

func (r *Recorder) CacheMiss() {
	r.cache.WithLabelValues("miss").Inc()
}

//Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
