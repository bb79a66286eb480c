// Package http is a reference dispatcher for sessiond over chi.
//
// It extracts the session token from the X-Session-ID header (falling back to
// the session_id cookie), resolves it, runs the requested cart or workflow
// operation and serializes the result as JSON. Domain errors are mapped to
// status codes in one place, see statusFor.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/sessiond"
	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// HeaderSessionID carries the session token.
	HeaderSessionID = "X-Session-ID"
	// CookieSessionID is consulted when the header is absent.
	CookieSessionID = "session_id"

	maxBodyBytes = 1 << 20
)

// Server serves the session API.
type Server struct {
	svc     *sessiond.Service
	streams *StreamManager
	logger  *slog.Logger

	metricsPath    string
	metricsHandler http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams serves GET /events from the given StreamManager. Its Hooks must
// be registered with the service for events to flow.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.streams = streams
	}
}

// WithMetricsHandler mounts h at path, typically promhttp.Handler() at /metrics.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = h
	}
}

// NewHandler creates the HTTP handler for the service.
func NewHandler(svc *sessiond.Service, opts ...Option) http.Handler {
	s := &Server{
		svc:    svc,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metricsHandler != nil {
		r.Handle(s.metricsPath, s.metricsHandler)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.With(s.resolveSession).Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Patch("/{id}", s.UpdateSession)
		r.Delete("/{id}", s.DeleteSession)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.resolveSession)

		r.Get("/cart", s.GetCart)
		r.Delete("/cart", s.ClearCart)
		r.Post("/cart/items", s.AddCartItem)
		r.Put("/cart/items/{product_id}", s.SetCartItem)
		r.Delete("/cart/items/{product_id}", s.RemoveCartItem)

		r.Get("/workflow", s.GetWorkflow)
		r.Post("/workflow", s.StartWorkflow)
		r.Post("/workflow/advance", s.AdvanceWorkflow)

		if s.streams != nil {
			r.Get("/events", s.SubscribeEvents)
		}
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderSessionID)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type sessionKey struct{}

// resolveSession short-circuits with 401 unless the request carries a live session.
func (s *Server) resolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.svc.Resolver.Resolve(r.Context(), tokenFrom(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFrom(r *http.Request) string {
	if token := r.Header.Get(HeaderSessionID); token != "" {
		return token
	}
	if c, err := r.Cookie(CookieSessionID); err == nil {
		return c.Value
	}
	return ""
}

func sessionIDFrom(r *http.Request) string {
	sess, _ := r.Context().Value(sessionKey{}).(*domain.Session)
	if sess == nil {
		return ""
	}
	return sess.ID
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	active, err := s.svc.Registry.Len(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": active,
	})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "sessiond",
		"version": sessiond.Version,
		"ttl":     s.svc.Registry.TTL().String(),
	})
}

type createSessionRequest struct {
	OwnerID string         `json:"owner_id"`
	Payload map[string]any `json:"payload"`
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.OwnerID == "" {
		s.writeError(w, r, fmt.Errorf("%w: owner_id is required", errBadRequest))
		return
	}

	var initial domain.Payload
	if body.Payload != nil {
		p, err := domain.DecodePayload(body.Payload)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		initial = p
	}

	sess, err := s.svc.Registry.Create(r.Context(), body.OwnerID, initial)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieSessionID,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.svc.Registry.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusCreated, sess)
}

// sessionSummary is what an owner may see of their other sessions. The id is
// the bearer token and never leaves the session it belongs to.
type sessionSummary struct {
	OwnerID        string    `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	VisitCount     int       `json:"visit_count"`
	Current        bool      `json:"current"`
}

// ListSessions handles the GET /sessions request. It lists the live sessions
// of the resolved session's owner.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	current, _ := r.Context().Value(sessionKey{}).(*domain.Session)
	if current == nil {
		s.writeError(w, r, domain.ErrRejected)
		return
	}
	sessions, err := s.svc.Registry.ListByOwner(r.Context(), current.OwnerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{
			OwnerID:        sess.OwnerID,
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			ExpiresAt:      sess.ExpiresAt,
			VisitCount:     sess.VisitCount,
			Current:        sess.ID == current.ID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// UpdateSession handles the PATCH /sessions/{id} request. The body is a
// partial payload merged at the top level.
func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := decodeBody(w, r, &partial); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		return
	}
	sess, err := s.svc.Registry.UpdateRaw(r.Context(), chi.URLParam(r, "id"), partial)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.svc.Registry.Delete(r.Context(), id) {
		s.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: CookieSessionID, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// GetCart handles the GET /cart request.
func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, r)(s.svc.Carts.GetOrCreate(r.Context(), sessionIDFrom(r)))
}

// ClearCart handles the DELETE /cart request.
func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, r)(s.svc.Carts.Clear(r.Context(), sessionIDFrom(r)))
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

// AddCartItem handles the POST /cart/items request. Quantity defaults to 1.
func (s *Server) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var body cartItemRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.ProductID == "" {
		s.writeError(w, r, fmt.Errorf("%w: product_id is required", errBadRequest))
		return
	}
	quantity := 1
	if body.Quantity != nil {
		quantity = *body.Quantity
	}
	s.writeCart(w, r)(s.svc.Carts.AddItem(r.Context(), sessionIDFrom(r), body.ProductID, quantity))
}

// SetCartItem handles the PUT /cart/items/{product_id} request.
func (s *Server) SetCartItem(w http.ResponseWriter, r *http.Request) {
	var body cartItemRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Quantity == nil {
		s.writeError(w, r, fmt.Errorf("%w: quantity is required", domain.ErrInvalidQuantity))
		return
	}
	s.writeCart(w, r)(s.svc.Carts.SetQuantity(r.Context(), sessionIDFrom(r), chi.URLParam(r, "product_id"), *body.Quantity))
}

// RemoveCartItem handles the DELETE /cart/items/{product_id} request.
func (s *Server) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, r)(s.svc.Carts.RemoveItem(r.Context(), sessionIDFrom(r), chi.URLParam(r, "product_id")))
}

func (s *Server) writeCart(w http.ResponseWriter, r *http.Request) func(*domain.Cart, error) {
	return func(c *domain.Cart, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type startWorkflowRequest struct {
	Steps []string `json:"steps"`
}

// GetWorkflow handles the GET /workflow request.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	s.writeWorkflow(w, r, http.StatusOK)(s.svc.Workflows.Current(r.Context(), sessionIDFrom(r)))
}

// StartWorkflow handles the POST /workflow request.
func (s *Server) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	var body startWorkflowRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWorkflow(w, r, http.StatusCreated)(s.svc.Workflows.Start(r.Context(), sessionIDFrom(r), body.Steps))
}

// AdvanceWorkflow handles the POST /workflow/advance request.
func (s *Server) AdvanceWorkflow(w http.ResponseWriter, r *http.Request) {
	s.writeWorkflow(w, r, http.StatusOK)(s.svc.Workflows.Advance(r.Context(), sessionIDFrom(r)))
}

func (s *Server) writeWorkflow(w http.ResponseWriter, r *http.Request, status int) func(*domain.Workflow, error) {
	return func(wf *domain.Workflow, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, status, wf)
	}
}

// -- Helpers --

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

var errBadRequest = errors.New("bad request")
