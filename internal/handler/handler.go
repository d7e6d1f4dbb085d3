package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/outbreak-estimator/internal/config"
	"github.com/Dan9191/outbreak-estimator/internal/metrics"
	"github.com/Dan9191/outbreak-estimator/internal/middleware"
	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/Dan9191/outbreak-estimator/internal/repository"
	"github.com/Dan9191/outbreak-estimator/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// InvalidInputMessage is the error payload for any request the estimator cannot read
const InvalidInputMessage = "There was an error with your input. Make sure you insert the parameters correctly"

const (
	maxBodyBytes    = 1 << 20
	internalMessage = "internal server error"
)

type Handler struct {
	svc     *service.Service
	store   repository.RequestLogStore
	metrics *metrics.Registry
	log     *logrus.Logger
}

func NewHandler(svc *service.Service, store repository.RequestLogStore, m *metrics.Registry, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, store: store, metrics: m, log: log}
}

// Router wires every endpoint. limiter may be nil to disable rate limiting.
func (h *Handler) Router(cfg *config.Config, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// estimation routes go through the audit log, including the ones rate limited
	estimate := func(hf http.HandlerFunc) http.Handler {
		return middleware.AccessLog(h.store, h.metrics, h.log)(middleware.RateLimit(limiter)(hf))
	}

	r.Handle("/api/v1/on-covid-19/logs", middleware.AuthMiddleware(cfg)(http.HandlerFunc(h.Logs))).Methods(http.MethodGet)
	r.Handle("/api/v1/on-covid-19", estimate(h.EstimateJSON)).Methods(http.MethodPost)
	r.Handle("/api/v1/on-covid-19/json", estimate(h.EstimateJSON)).Methods(http.MethodPost)
	r.Handle("/api/v1/on-covid-19/xml", estimate(h.EstimateXML)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/token", h.Token).Methods(http.MethodPost)
	r.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	return r
}

// EstimateJSON handles an estimation request answered in JSON
func (h *Handler) EstimateJSON(w http.ResponseWriter, r *http.Request) {
	result, status, msg := h.estimate(r)
	if result == nil {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	h.metrics.IncEstimate("json")
	writeJSON(w, http.StatusOK, result)
}

// EstimateXML handles an estimation request answered in XML
func (h *Handler) EstimateXML(w http.ResponseWriter, r *http.Request) {
	result, status, msg := h.estimate(r)
	if result == nil {
		body, err := EncodeXMLError(msg)
		if err != nil {
			h.log.Errorf("Failed to encode XML error: %v", err)
			http.Error(w, internalMessage, http.StatusInternalServerError)
			return
		}
		writeXML(w, status, body)
		return
	}

	body, err := EncodeXML(result)
	if err != nil {
		h.log.Errorf("Failed to encode XML response: %v", err)
		http.Error(w, internalMessage, http.StatusInternalServerError)
		return
	}

	h.metrics.IncEstimate("xml")
	writeXML(w, http.StatusOK, body)
}

// estimate decodes the body and runs the estimation. On failure it returns a nil
// result with the status and message to answer with.
func (h *Handler) estimate(r *http.Request) (*models.EstimationResult, int, string) {
	var input models.EstimationInput
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		h.log.WithField("request_id", middleware.GetRequestID(r.Context())).Debugf("Rejected request body: %v", err)
		return nil, http.StatusBadRequest, InvalidInputMessage
	}

	result, err := h.svc.Estimate(r.Context(), &input)
	if errors.Is(err, service.ErrInvalidInput) {
		h.log.WithField("request_id", middleware.GetRequestID(r.Context())).Debugf("Rejected input: %v", err)
		return nil, http.StatusBadRequest, InvalidInputMessage
	}
	if err != nil {
		h.log.Errorf("Estimation failed: %v", err)
		return nil, http.StatusInternalServerError, internalMessage
	}
	return result, http.StatusOK, ""
}

// Logs serves the request audit log as plain text
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.log.Errorf("Failed to read request log: %v", err)
		http.Error(w, internalMessage, http.StatusInternalServerError)
		return
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

type tokenRequest struct {
	Password string `json:"password"`
}

// Token exchanges the admin password for a bearer token
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	token, err := h.svc.Login(req.Password)
	switch {
	case errors.Is(err, service.ErrAuthDisabled):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "authentication is not enabled"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	case err != nil:
		h.log.Errorf("Token issue failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": internalMessage})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// Health reports that the process is serving
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON answers 500 when v cannot be encoded
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, internalMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeXML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
