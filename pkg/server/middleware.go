package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/jensneuse/abstractlogger"
)

// statusRecorder captures the status code a handler writes so the request
// log can include it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogging tags every request with an id and logs method, path,
// status and duration on completion. Authorization header contents are
// never logged.
func RequestLogging(logger log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.NoopLogger
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			logger.Info("request completed",
				log.String("request_id", requestID),
				log.String("method", r.Method),
				log.String("path", r.URL.Path),
				log.Int("status", recorder.status),
				log.String("duration", time.Since(start).String()),
			)
		})
	}
}

// CORS answers preflight requests and opens the endpoint to browser
// clients. The gateway fronts public storefront traffic; origins are not
// restricted.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
