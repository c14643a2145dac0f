package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/pagecheck/internal/domain"
)

type Collector struct {
	registry      *prometheus.Registry
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	lastStatus    *prometheus.GaugeVec
	fragmentFound *prometheus.GaugeVec
	fetchRetries  *prometheus.CounterVec
}

// NewCollector registers on its own registry so several collectors can
// coexist in one process (tests, serve + one-shot).
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecheck_runs_total",
				Help: "Total number of page verification runs",
			},
			[]string{"url", "verdict"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagecheck_run_duration_seconds",
				Help:    "Duration of fetch plus assertion",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"url"},
		),
		lastStatus: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pagecheck_last_http_status",
				Help: "HTTP status of the latest run (0 on connection error)",
			},
			[]string{"url"},
		),
		fragmentFound: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pagecheck_fragment_found",
				Help: "1 if the fragment was present in the latest body, else 0",
			},
			[]string{"url", "label"},
		),
		fetchRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecheck_fetch_retries_total",
				Help: "Total number of fetch retries after connection errors",
			},
			[]string{"url"},
		),
	}
}

func (c *Collector) RecordRun(r domain.RunReport) {
	url := r.Target.URL
	c.runsTotal.WithLabelValues(url, string(r.Verdict)).Inc()
	c.runDuration.WithLabelValues(url).Observe(r.Duration.Seconds())

	status := 0.0
	if r.Result != nil {
		status = float64(r.Result.StatusCode)
	}
	c.lastStatus.WithLabelValues(url).Set(status)

	for _, chk := range r.Checks {
		v := 0.0
		if chk.Found {
			v = 1.0
		}
		c.fragmentFound.WithLabelValues(url, chk.Label).Set(v)
	}
}

func (c *Collector) RecordRetry(url string) {
	c.fetchRetries.WithLabelValues(url).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current metrics in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
