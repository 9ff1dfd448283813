// Package metrics exports protocol counters over HTTP for a
// Prometheus scraper, the wiring this repo's demo binaries use to
// observe the t30 engine's retries, PPR rounds and fallback steps from
// outside.
//
// Grounded on facebook-time/ptp/sptp/stats/prom_exporter.go: a
// *prometheus.Registry owned by an exporter type, counters registered
// against it up front (this package's counters are fixed and known in
// advance, unlike that file's dynamically-keyed gauges, so Register
// happens once in the constructor rather than per-scrape), and
// promhttp.HandlerFor serving /metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a *prometheus.Registry with the counters a t30
// session reports through its Metrics collaborator, satisfying
// t30.Metrics.
type Registry struct {
	reg       *prometheus.Registry
	retries   prometheus.Counter
	pprRounds prometheus.Counter
	fallbacks prometheus.Counter
}

// NewRegistry builds a Registry and registers its counters.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faxt30_response_timer_retries_total",
			Help: "Command frames retransmitted after T4 (response timer) expiry.",
		}),
		pprRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faxt30_ppr_rounds_total",
			Help: "Partial Page Request rounds processed during ECM transfer.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faxt30_fallback_steps_total",
			Help: "Rate fallback steps taken after a failed TCF or CTC retrain.",
		}),
	}
	for _, c := range []prometheus.Collector{r.retries, r.pprRounds, r.fallbacks} {
		if err := r.reg.Register(c); err != nil {
			are := &prometheus.AlreadyRegisteredError{}
			if !errors.As(err, are) {
				panic(fmt.Sprintf("metrics: register: %v", err))
			}
		}
	}
	return r
}

func (r *Registry) IncRetry()    { r.retries.Inc() }
func (r *Registry) IncPPR()      { r.pprRounds.Inc() }
func (r *Registry) IncFallback() { r.fallbacks.Inc() }

// Serve runs an HTTP server exposing /metrics on addr until ctx is
// cancelled, the same promhttp.HandlerFor/EnableOpenMetrics wiring as
// PrometheusExporter.Start in the teacher pack, but shut down
// cooperatively instead of left running via log.Fatal(ListenAndServe).
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
