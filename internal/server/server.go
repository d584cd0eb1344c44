// Package server hosts the HTTP API: auth endpoints, audited record access,
// input validation, and the access log, behind token auth and rate limiting.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"casevault/backend/internal/auth"
	clientdomain "casevault/backend/internal/client/domain"
	"casevault/backend/internal/gateway"
	"casevault/backend/internal/ratelimit"
	"casevault/backend/internal/security"
	"casevault/backend/internal/session"
	"casevault/backend/internal/validate"
)

// Options configures the HTTP server.
type Options struct {
	Addr string
	// RateLimitMaxRequests and RateLimitWindow bound requests per fixed
	// window: per client IP on the login path, per session on gateway routes.
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// Server wires the HTTP routes to the auth service and the access gateway.
type Server struct {
	mux      *http.ServeMux
	httpSrv  *http.Server
	auth     *auth.Service
	gateway  *gateway.Gateway
	tokens   *security.TokenProvider
	registry *session.Registry
	limiter  *ratelimit.Limiter
	opts     Options
}

// New returns a Server with routes registered.
func New(authSvc *auth.Service, gw *gateway.Gateway, tokens *security.TokenProvider, registry *session.Registry, limiter *ratelimit.Limiter, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.RateLimitMaxRequests <= 0 {
		opts.RateLimitMaxRequests = ratelimit.DefaultMaxRequests
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = ratelimit.DefaultWindow
	}
	s := &Server{
		mux:      http.NewServeMux(),
		auth:     authSvc,
		gateway:  gw,
		tokens:   tokens,
		registry: registry,
		limiter:  limiter,
		opts:     opts,
	}
	s.registerRoutes()
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           withOrigin(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving. Blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Printf("server: listening on %s", s.opts.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting for in-flight requests up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return withOrigin(s.mux)
}

func (s *Server) registerRoutes() {
	limited := func(h http.HandlerFunc) http.Handler {
		return rateLimit(s.limiter, s.opts.RateLimitMaxRequests, s.opts.RateLimitWindow, ipKey, h)
	}
	// Gateway routes sit behind the limiter too, keyed by session id so one
	// principal cannot scrape records faster than the window allows.
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(s.tokens, s.registry,
			rateLimit(s.limiter, s.opts.RateLimitMaxRequests, s.opts.RateLimitWindow, sessionKey, h))
	}

	s.mux.Handle("POST /api/v1/auth/login", limited(s.handleLogin))
	s.mux.Handle("POST /api/v1/auth/logout", protected(s.handleLogout))

	s.mux.Handle("GET /api/v1/clients/search", protected(s.handleSearch))
	s.mux.Handle("GET /api/v1/clients/{id}", protected(s.handleGetFull))
	s.mux.Handle("GET /api/v1/clients/{id}/summary", protected(s.handleGetSummary))
	s.mux.Handle("GET /api/v1/access-log", protected(s.handleAccessLog))

	s.mux.Handle("POST /api/v1/validate", protected(s.handleValidate))

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password, ClientIP(r))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		SessionID:   res.SessionID,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	principalID, _ := GetPrincipalID(r.Context())
	sessionID, _ := GetSessionID(r.Context())
	if err := s.auth.Logout(r.Context(), sessionID, principalID); err != nil {
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordResponse struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	CaseNotes       string     `json:"case_notes"`
	FinancialNotes  string     `json:"financial_notes"`
	AssignedStaffID string     `json:"assigned_staff_id"`
}

type summaryResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func toSummaryResponse(s *clientdomain.Summary) summaryResponse {
	return summaryResponse{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Phone:     s.Phone,
	}
}

func (s *Server) handleGetFull(w http.ResponseWriter, r *http.Request) {
	rec, err := s.gateway.GetFull(r.Context(), s.caller(r), r.PathValue("id"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{
		ID:              rec.ID,
		FirstName:       rec.FirstName,
		LastName:        rec.LastName,
		Email:           rec.Email,
		Phone:           rec.Phone,
		Address:         rec.Address,
		DateOfBirth:     rec.DateOfBirth,
		CaseNotes:       rec.CaseNotes,
		FinancialNotes:  rec.FinancialNotes,
		AssignedStaffID: rec.AssignedStaffID,
	})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.gateway.GetSummary(r.Context(), s.caller(r), r.PathValue("id"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	sums, err := s.gateway.Search(r.Context(), s.caller(r), term)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	out := make([]summaryResponse, 0, len(sums))
	for _, sum := range sums {
		out = append(out, toSummaryResponse(sum))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

type accessLogEntry struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	AccessType  string    `json:"access_type"`
	RecordID    string    `json:"record_id,omitempty"`
	IP          string    `json:"ip"`
	UserAgent   string    `json:"user_agent"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleAccessLog(w http.ResponseWriter, r *http.Request) {
	recordID := r.URL.Query().Get("record_id")
	windowDays := 0
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid window_days")
			return
		}
		windowDays = n
	}
	entries, err := s.gateway.GetAccessLog(r.Context(), s.caller(r), recordID, windowDays)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	out := make([]accessLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, accessLogEntry{
			ID:          e.ID,
			PrincipalID: e.PrincipalID,
			AccessType:  string(e.AccessType),
			RecordID:    e.RecordID,
			IP:          e.IP,
			UserAgent:   e.UserAgent,
			Detail:      e.Detail,
			CreatedAt:   e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

type validateRequest struct {
	Value string `json:"value"`
	Kind  string `json:"kind"`
}

type validateResponse struct {
	Sanitized string `json:"sanitized"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind := validate.Kind(req.Kind)
	if !kind.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	res := validate.Value(req.Value, kind)
	resp := validateResponse{Sanitized: res.Sanitized, Valid: res.Valid, Error: res.Err}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) caller(r *http.Request) gateway.Caller {
	principalID, _ := GetPrincipalID(r.Context())
	sessionID, _ := GetSessionID(r.Context())
	return gateway.Caller{
		PrincipalID: principalID,
		SessionID:   sessionID,
		IP:          ClientIP(r),
		UserAgent:   r.UserAgent(),
	}
}

// writeGatewayError maps gateway sentinels to HTTP codes. Denied and missing
// records share one 403 body so responses cannot be used to probe which
// records exist.
func writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrAccessDenied), errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, gateway.ErrSessionTerminated):
		writeError(w, http.StatusUnauthorized, "session terminated")
	case errors.Is(err, gateway.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
