package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

// MetricsMiddleware records every ops request under endpoint and counts
// 4xx and 5xx answers as http component errors.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	log := logger.Get().Named("api")
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(rec.status), float64(elapsed.Microseconds())/1000)
		if kind := errorKind(rec.status); kind != "" {
			metrics.RecordErrorByComponent("http", kind)
		}
		log.Debug(r.Context(), "ops request",
			logger.String("endpoint", endpoint),
			logger.String("method", r.Method),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", elapsed),
		)
	}
}

// errorKind buckets a status for the errors_total metric; "" means success.
func errorKind(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return ""
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
