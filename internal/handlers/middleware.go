package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/inference-gateway/mcp-manager/internal/logger"
	"github.com/inference-gateway/mcp-manager/internal/metrics"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id back to the client
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument tags the request with an id, logs it and records it under route.
// The route label is fixed at registration so ids in paths do not become labels.
func Instrument(m *metrics.Metrics, route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := logger.WithRequest(r.Context(), requestID)
		done := m.MeasureRequest(r.Method, route)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r.WithContext(ctx))

		elapsed := done(rec.status)
		logger.FromContext(ctx).Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	}
}
