package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the workflow routes. A nil gatherer leaves /metrics out.
func NewRouter(h *WorkflowHandler, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	r.HandleFunc("/", h.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/state", h.HandleState).Methods(http.MethodGet)
	apiRouter.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
	apiRouter.HandleFunc("/uploads/{slot}", h.HandleUpload).Methods(http.MethodPost)
	apiRouter.HandleFunc("/images/{slot}", h.HandleImage).Methods(http.MethodGet)
	apiRouter.HandleFunc("/generate", h.HandleGenerate).Methods(http.MethodPost)
	apiRouter.HandleFunc("/mode", h.HandleMode).Methods(http.MethodPut)
	apiRouter.HandleFunc("/edit", h.HandleEdit).Methods(http.MethodPost)
	apiRouter.HandleFunc("/reset", h.HandleReset).Methods(http.MethodPost)
	apiRouter.HandleFunc("/result/download", h.HandleDownload).Methods(http.MethodGet)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *WorkflowHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
