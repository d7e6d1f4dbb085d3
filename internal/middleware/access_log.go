package middleware

import (
	"net/http"
	"time"

	"github.com/Dan9191/outbreak-estimator/internal/metrics"
	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/Dan9191/outbreak-estimator/internal/repository"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// AccessLog records method, path, status and latency of every request in the
// request log store and in the metrics registry. A store failure is logged and
// does not affect the response.
func AccessLog(store repository.RequestLogStore, m *metrics.Registry, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			latency := time.Since(start)

			entry := &models.RequestLog{
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    rec.status,
				Latency:   latency,
				CreatedAt: start.UTC(),
			}
			if err := store.Append(r.Context(), entry); err != nil {
				log.Errorf("Failed to record request log: %v", err)
			}
			m.ObserveRequest(entry.Method, entry.Path, entry.Status, latency)

			log.WithFields(logrus.Fields{
				"request_id": GetRequestID(r.Context()),
				"method":     entry.Method,
				"path":       entry.Path,
				"status":     entry.Status,
				"latency_ms": latency.Milliseconds(),
			}).Info("Request served")
		})
	}
}
