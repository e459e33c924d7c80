package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	traceHeader = "X-Trace-ID"

	// unmatchedRoute labels requests that no registered route accepted.
	unmatchedRoute = "unmatched"
)

// RequestInfo is filled in while a request travels through the handler chain
// and read back by the logging and metrics middlewares once it returns.
type RequestInfo struct {
	Route     string
	Principal string
}

type requestInfoKey struct{}

// requestInfo returns the RequestInfo attached to r, attaching a new one when
// r has none.
func requestInfo(r *http.Request) (*http.Request, *RequestInfo) {
	if info, ok := r.Context().Value(requestInfoKey{}).(*RequestInfo); ok {
		return r, info
	}
	info := &RequestInfo{}
	return r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)), info
}

// SetPrincipal records who made the request. It is a no-op outside the
// logging and metrics middlewares.
func SetPrincipal(ctx context.Context, principal string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo); ok {
		info.Principal = principal
	}
}

// PrincipalFromContext returns the principal recorded for the request, if any.
func PrincipalFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo); ok {
		return info.Principal
	}
	return ""
}

func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = newTraceID()
		}
		ctx := ContextWithTraceID(r.Context(), traceID)
		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RouteMiddleware records the pattern mux matches for each request so that
// logs and metrics are keyed by route instead of the raw path.
func RouteMiddleware(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, info := requestInfo(r)
		if _, pattern := mux.Handler(r); pattern != "" {
			info.Route = pattern
		}
		mux.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, info := requestInfo(r)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			attrs := []slog.Attr{
				slog.String("trace_id", TraceIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("route", routeLabel(info)),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", recorder.status),
				slog.String("duration", time.Since(start).String()),
				slog.Int("bytes", recorder.bytes),
			}
			if info.Principal != "" {
				attrs = append(attrs, slog.String("principal", info.Principal))
			}
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http_request", attrs...)
		})
	}
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r, info := requestInfo(r)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(info)
		status := strconv.Itoa(recorder.status)
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func routeLabel(info *RequestInfo) string {
	if info.Route == "" {
		return unmatchedRoute
	}
	return info.Route
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	n, err := r.ResponseWriter.Write(body)
	r.bytes += n
	return n, err
}

func newTraceID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}
