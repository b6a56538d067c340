// Package server exposes the score store and the ranking operation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/routhusundeep/ai-job-assistant/internal/auth"
	"github.com/routhusundeep/ai-job-assistant/internal/repository"
	"github.com/routhusundeep/ai-job-assistant/internal/service"
)

// defaultListLimit caps the rankings listing when the caller does not ask
// for a specific size.
const defaultListLimit = 20

// HTTPServer wraps the chi-based HTTP API
type HTTPServer struct {
	server *http.Server
	router *chi.Mux
	logger *slog.Logger
}

// HTTPServerConfig holds configuration for the HTTP server
type HTTPServerConfig struct {
	Port           int
	Logger         *slog.Logger
	AllowedOrigins []string // CORS allowed origins
	APIKey         string   // Empty disables authentication
	ResumePath     string   // Default resume used by ranking runs
	DefaultTopN    int      // Refinement slice size when a request omits top_n
}

// NewHTTPServer creates the HTTP server and mounts all routes.
func NewHTTPServer(cfg HTTPServerConfig, rank *service.RankService, jobs repository.JobStore, scores repository.ScoreStore) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLoggingMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	router.Get("/healthz", healthCheckHandler())
	router.Get("/readyz", healthCheckHandler())

	h := &handlers{
		rank:        rank,
		jobs:        jobs,
		scores:      scores,
		resumePath:  cfg.ResumePath,
		defaultTopN: cfg.DefaultTopN,
		logger:      logger,
	}

	router.Route("/v1", func(r chi.Router) {
		r.Use(auth.APIKeyMiddleware(cfg.APIKey))
		r.Post("/jobs", h.insertJob)
		r.Get("/scores/{jobID}", h.getScore)
		r.Get("/rankings", h.listRankings)
		r.Post("/rank", h.runRanking)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // A ranking run embeds the corpus inline
		IdleTimeout:  120 * time.Second,
	}

	return &HTTPServer{server: server, router: router, logger: logger}
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

type handlers struct {
	rank        *service.RankService
	jobs        repository.JobStore
	scores      repository.ScoreStore
	resumePath  string
	defaultTopN int
	logger      *slog.Logger
}

// jobRequest is the ingestion drop-off payload. The scraping pipeline that
// produces it lives outside this service.
type jobRequest struct {
	JobID        string   `json:"job_id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	CompanyURL   string   `json:"company_url"`
	RecruiterURL string   `json:"recruiter_url"`
	SalaryMin    *float64 `json:"salary_min"`
	SalaryMax    *float64 `json:"salary_max"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
}

func (h *handlers) insertJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.JobID == "" || req.URL == "" || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "job_id, title and url are required")
		return
	}

	inserted, err := h.jobs.Insert(r.Context(), &repository.JobPosting{
		JobID:        req.JobID,
		Title:        req.Title,
		Company:      req.Company,
		CompanyURL:   req.CompanyURL,
		RecruiterURL: req.RecruiterURL,
		SalaryMin:    req.SalaryMin,
		SalaryMax:    req.SalaryMax,
		Description:  req.Description,
		URL:          req.URL,
	})
	if err != nil {
		h.logger.Error("failed to insert job posting", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store job posting")
		return
	}

	status := http.StatusCreated
	if !inserted {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"job_id": req.JobID, "inserted": inserted})
}

func (h *handlers) getScore(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	score, err := h.scores.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no score for job "+jobID)
			return
		}
		h.logger.Error("failed to read score", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read score")
		return
	}
	writeJSON(w, http.StatusOK, scorePayload(score))
}

func (h *handlers) listRankings(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	scores, err := h.scores.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list scores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}

	payload := make([]map[string]any, 0, len(scores))
	for _, score := range scores {
		payload = append(payload, scorePayload(score))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": payload})
}

// rankRequest is the "run ranking now" payload.
type rankRequest struct {
	Model       string `json:"model"`
	UseLLM      bool   `json:"use_llm"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
	TopN        int    `json:"top_n"`
}

func (h *handlers) runRanking(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.TopN < 0 {
		writeError(w, http.StatusBadRequest, "top_n must be >= 1")
		return
	}
	if req.TopN == 0 {
		req.TopN = h.defaultTopN
	}

	result, err := h.rank.Rank(r.Context(), service.RankRequest{
		ResumePath:  h.resumePath,
		Model:       req.Model,
		UseLLM:      req.UseLLM,
		LLMProvider: req.LLMProvider,
		LLMModel:    req.LLMModel,
		TopN:        req.TopN,
	})
	if err != nil {
		h.logger.Error("ranking run failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// scorePayload renders a score row. A job never refined reports an explicit
// null refined score, not zero.
func scorePayload(score *repository.Score) map[string]any {
	return map[string]any{
		"job_id":        score.JobID,
		"base_score":    score.BaseScore,
		"refined_score": score.RefinedScore,
		"updated_at":    score.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func healthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// requestLoggingMiddleware logs HTTP requests
func requestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 {
				allowed = true
				origin = "*"
			} else {
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID, X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
