package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/sirupsen/logrus"
)

var (
	Registry = prometheus.NewRegistry()

	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rossip",
			Name:      "messages_received_total",
			Help:      "Decoded datagrams by message kind.",
		},
		[]string{"kind"},
	)

	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rossip",
			Name:      "messages_sent_total",
			Help:      "Datagrams sent by message kind and result.",
		},
		[]string{"kind", "result"},
	)

	DecodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rossip",
			Name:      "decode_errors_total",
			Help:      "Datagrams dropped because they could not be decoded.",
		},
	)

	PeersKnown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rossip",
			Name:      "peers",
			Help:      "Peers currently in the registry.",
		},
	)

	PeersDiscovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rossip",
			Name:      "peers_discovered_total",
			Help:      "Peers first learned through a peer list.",
		},
	)

	PeersPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rossip",
			Name:      "peers_pruned_total",
			Help:      "Peers evicted after missing heartbeats.",
		},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "rossip",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(MessagesReceived, MessagesSent, DecodeErrors, PeersKnown, PeersDiscovered, PeersPruned, uptime)
}

// MetricsHandler exposes /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveSend counts one send attempt.
func ObserveSend(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MessagesSent.WithLabelValues(kind, result).Inc()
}

// Serve runs the metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
