package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// probeTimeout bounds how long a readiness probe may take.
const probeTimeout = 5 * time.Second

// Check is a named dependency probe run on GET /ready.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthCheck serves GET /health (liveness) and GET /ready (dependency
// probes) in front of another handler.
type HealthCheck struct {
	checks []Check
}

// New creates a health check handler with the given readiness probes.
func New(checks ...Check) *HealthCheck {
	return &HealthCheck{checks: checks}
}

// Handler intercepts health endpoints and passes everything else through.
func (hc *HealthCheck) Handler(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			switch r.URL.Path {
			case "/health":
				hc.serveLiveness(w)
				return
			case "/ready":
				hc.serveReadiness(w, r)
				return
			}
		}

		h.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

func (hc *HealthCheck) serveLiveness(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (hc *HealthCheck) serveReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	for _, check := range hc.checks {
		if err := check.Probe(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "%s: %v\n", check.Name, err)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}
