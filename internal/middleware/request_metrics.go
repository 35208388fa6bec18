package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/metrics"

	"github.com/gorilla/mux"
)

const unmatchedRoute = "unmatched"

type routeNameKey struct{}

type routeName struct {
	name string
}

// RequestMetrics counts requests and observes their duration. It wraps the
// whole router, so the route label is filled in by RouteName running inside.
func RequestMetrics(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			begin := time.Now()
			metricsManager.GaugeRequests.Inc()
			defer metricsManager.GaugeRequests.Dec()

			route := &routeName{name: unmatchedRoute}
			req = req.WithContext(context.WithValue(req.Context(), routeNameKey{}, route))
			resp := &responseWriter{ResponseWriter: respWriter, statusCode: http.StatusOK}

			// handler call
			next.ServeHTTP(resp, req)

			status := strconv.Itoa(resp.statusCode)
			metricsManager.CounterRequests.WithLabelValues(req.Method, status).Inc()
			metricsManager.HistogramRequestDuration.
				WithLabelValues(route.name, req.Method, status).
				Observe(time.Since(begin).Seconds())
		})
	}
}

// RouteName is a router middleware, it hands the matched route name over
// to RequestMetrics.
func RouteName() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if holder, ok := r.Context().Value(routeNameKey{}).(*routeName); ok {
				if current := mux.CurrentRoute(r); current != nil && current.GetName() != "" {
					holder.name = current.GetName()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *responseWriter) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseWriter) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
