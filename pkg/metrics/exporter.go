package metrics

import (
	"context"
	"net/http"
	"strconv"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/apex/log"
)

// Exporter serves the registered views as a Prometheus scrape endpoint.
type Exporter struct {
	server *http.Server
	logger *log.Entry
}

func NewExporter(namespace string, port int) (*Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: namespace,
	})
	if err != nil {
		return nil, err
	}

	if err := RegisterViews(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", pe)
	return &Exporter{
		server: &http.Server{Addr: ":" + strconv.Itoa(port), Handler: mux},
		logger: log.WithField("module", "metrics-exporter"),
	}, nil
}

// Start blocks until the endpoint stops.
func (e *Exporter) Start() error {
	e.logger.Infof("Serving metrics on %s/metrics", e.server.Addr)
	if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (e *Exporter) Shutdown(ctx context.Context) error {
	return e.server.Shutdown(ctx)
}
