// Package server exposes a datasetgen.Session over HTTP and a websocket
// status stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mhpenta/datasetgen"
	"github.com/mhpenta/datasetgen/internal/broker"
	"github.com/mhpenta/datasetgen/internal/metrics"
)

// HTTPServer holds the handlers' collaborators.
type HTTPServer struct {
	session  *datasetgen.Session
	exporter *datasetgen.Exporter
	broker   *broker.MemoryBroker
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option configures an HTTPServer.
type Option func(*HTTPServer)

// WithExporter enables POST /export.
func WithExporter(e *datasetgen.Exporter) Option {
	return func(s *HTTPServer) { s.exporter = e }
}

// WithBroker enables GET /ws. The broker must also be the session's Notifier.
func WithBroker(b *broker.MemoryBroker) Option {
	return func(s *HTTPServer) { s.broker = b }
}

// WithMetrics enables request metrics and GET /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *HTTPServer) { s.metrics = c }
}

// WithLogger sets the server's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *HTTPServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewHTTPServer(session *datasetgen.Session, opts ...Option) *HTTPServer {
	s := &HTTPServer{
		session: session,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "http"))
	return s
}

func (s *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /aspect-ratios", s.handleAspectRatios)

	mux.HandleFunc("GET /requests", s.handleListRequests)
	mux.HandleFunc("POST /requests", s.handleAddRequest)
	mux.HandleFunc("DELETE /requests/{id}", s.handleRemoveRequest)

	mux.HandleFunc("POST /generate", s.handleGenerate)

	mux.HandleFunc("GET /images", s.handleListImages)
	mux.HandleFunc("GET /images/groups", s.handleListGroups)
	mux.HandleFunc("POST /images/{id}/variations", s.handleVariation)
	mux.HandleFunc("GET /images/{id}/download", s.handleDownload)

	if s.exporter != nil {
		mux.HandleFunc("POST /export", s.handleExport)
	}
	if s.broker != nil {
		mux.HandleFunc("GET /ws", s.handleWebSocket)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the routes wrapped in the middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	middlewares := []Middleware{Recovery(s.logger), RequestLogger(s.logger)}
	if s.metrics != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.metrics))
	}
	return Chain(mux, middlewares...)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *HTTPServer) handleAspectRatios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":      datasetgen.DefaultAspectRatio,
		"aspectRatios": datasetgen.AspectRatios(),
	})
}

func (s *HTTPServer) handleListRequests(w http.ResponseWriter, r *http.Request) {
	st := s.session.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"requests":             st.Requests,
		"totalRequestedImages": st.TotalRequestedImages,
	})
}

// labelList accepts labels as a JSON array or a comma-separated string.
type labelList []string

func (l *labelList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = datasetgen.ParseLabels(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return errors.New("labels must be a string or an array of strings")
	}
	*l = arr
	return nil
}

type addRequestBody struct {
	Prompt      string                 `json:"prompt"`
	Quantity    int                    `json:"quantity"`
	Labels      labelList              `json:"labels"`
	AspectRatio datasetgen.AspectRatio `json:"aspectRatio"`
}

func (s *HTTPServer) handleAddRequest(w http.ResponseWriter, r *http.Request) {
	var body addRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, ok := s.session.AddRequest(datasetgen.RequestInput{
		Prompt:      body.Prompt,
		Quantity:    body.Quantity,
		Labels:      body.Labels,
		AspectRatio: body.AspectRatio,
	})
	if !ok {
		// An empty prompt is ignored, not an error
		writeJSON(w, http.StatusOK, map[string]bool{"accepted": false})
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *HTTPServer) handleRemoveRequest(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RemoveRequest(r.PathValue("id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request
	ctx := context.WithoutCancel(r.Context())
	if err := s.session.StartDataset(ctx); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.session.Status())
}

func (s *HTTPServer) handleListImages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"images": s.session.Images()})
}

func (s *HTTPServer) handleListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"groups": s.session.Groups()})
}

func (s *HTTPServer) handleVariation(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if err := s.session.StartVariation(ctx, r.PathValue("id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.session.Status())
}

func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	img, ok := s.session.Image(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, datasetgen.ErrImageNotFound.Error())
		return
	}

	payload := img.Payload()
	data, err := payload.Bytes()
	if err != nil {
		s.logger.Error("stored image is not valid base64", zap.String("image_id", img.ID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "image data is corrupt")
		return
	}

	w.Header().Set("Content-Type", payload.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", datasetgen.ExportFilename(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	images := s.session.Images()
	if len(images) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no images to export")
		return
	}

	results, err := s.exporter.ExportAll(r.Context(), images)
	if s.metrics != nil {
		s.metrics.RecordExport("success", len(results))
		if err != nil {
			s.metrics.RecordExport("error", 1)
		}
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": err.Error(),
			"saved": results,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": results})
}

// writeSessionError maps session errors to status codes.
func (s *HTTPServer) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, datasetgen.ErrBusy):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, datasetgen.ErrEmptyQueue):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, datasetgen.ErrImageNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, datasetgen.ErrGeneratorNotConfigured):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("unexpected session error", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
