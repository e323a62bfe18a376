package stats

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
)

// StartHttpPProf serves /debug/pprof/ and the metrics of reg under
// /metrics on bind.
func StartHttpPProf(bind string, reg *prometheus.Registry) {
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		log.Errorf("profile server: %s", http.ListenAndServe(bind, nil))
	}()
}
