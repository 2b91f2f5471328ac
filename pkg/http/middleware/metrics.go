package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	applogger "Lenxys/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lenxys_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lenxys_http_request_duration_seconds",
		Help:    "HTTP request duration.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "class"})

	httpInFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lenxys_http_in_flight_requests",
		Help: "HTTP requests currently being served.",
	}, []string{"route"})

	httpResponseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lenxys_http_response_size_bytes",
		Help:    "HTTP response body size.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"route", "class"})

	registerHTTPOnce sync.Once
)

type routeKey struct{}

// RouteKey is the request context key holding the templated route path,
// e.g. "/api/run/sim/:run_id".
var RouteKey = routeKey{}

// unmatchedRoute labels requests no route matched, keeping raw paths out of labels.
const unmatchedRoute = "unmatched"

// Metrics records request metrics and warns on requests slower than slow.
func Metrics(l *applogger.Logger, slow time.Duration) func(http.Handler) http.Handler {
	registerHTTPOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, httpInFlight, httpResponseBytes)
	})
	if l == nil {
		l = applogger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r)
			httpInFlight.WithLabelValues(route).Inc()
			defer httpInFlight.WithLabelValues(route).Dec()

			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			elapsed := time.Since(start)

			class := statusClass(rw.status)
			httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
			httpDuration.WithLabelValues(route, r.Method, class).Observe(elapsed.Seconds())
			httpResponseBytes.WithLabelValues(route, class).Observe(float64(rw.written))

			// websocket sessions are long-lived by nature
			if slow > 0 && elapsed >= slow && rw.status != http.StatusSwitchingProtocols {
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", r.Method),
					applogger.Int("status", rw.status),
					applogger.Duration("duration_ms", elapsed),
				)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// Hijack lets websocket upgrades pass through.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func routeLabel(r *http.Request) string {
	if s, ok := r.Context().Value(RouteKey).(string); ok && s != "" {
		return s
	}
	return unmatchedRoute
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
