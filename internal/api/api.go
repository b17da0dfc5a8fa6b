package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/errors"
	"github.com/hpungsan/mindprint/internal/rental"
	"github.com/hpungsan/mindprint/internal/store"
)

// Server exposes the rental marketplace over HTTP. When authToken is
// non-empty, issuing and revoking tokens require a matching bearer token;
// validation and telemetry stay open.
type Server struct {
	store     *store.Store
	rentals   *rental.Service
	authToken string
}

func NewServer(st *store.Store, rentals *rental.Service, authToken string) *Server {
	return &Server{store: st, rentals: rentals, authToken: authToken}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/rentals", func(r chi.Router) {
			r.With(s.requireAuth).Post("/", s.handleIssueRental)
			r.Get("/{token}", s.handleValidateRental)
			r.Get("/{token}/preview", s.handlePreviewRental)
			r.With(s.requireAuth).Delete("/{token}", s.handleRevokeRental)
		})

		r.Post("/sellers/telemetry", s.handleTelemetry(s.store.UpsertSeller))
		r.Post("/buyers/telemetry", s.handleTelemetry(s.store.UpsertBuyer))
	})

	return r
}

// requireAuth enforces the bearer token when one is configured.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.authToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHORIZED", "invalid or missing bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

type issueRequest struct {
	SellerUserID string `json:"seller_user_id"`
	TTLHours     *int   `json:"ttl_hours,omitempty"`
	NoExpiry     bool   `json:"no_expiry,omitempty"`
}

type rentalResponse struct {
	Token        string `json:"token"`
	SellerUserID string `json:"seller_user_id"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
	State        string `json:"state"`
}

func (s *Server) handleIssueRental(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	opts := rental.IssueOptions{NoExpiry: req.NoExpiry}
	if req.TTLHours != nil {
		d := time.Duration(*req.TTLHours) * time.Hour
		opts.TTL = &d
	}

	row, err := s.rentals.Issue(r.Context(), req.SellerUserID, opts)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rentalResponse{
		Token:        row.Token,
		SellerUserID: row.SellerUserID,
		CreatedAt:    row.CreatedAt,
		ExpiresAt:    row.ExpiresAt,
		State:        rental.StateValid,
	})
}

type validateResponse struct {
	SellerUserID string `json:"seller_user_id"`
	Document     string `json:"document"`
}

func (s *Server) handleValidateRental(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	profile, row, err := s.rentals.Validate(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		SellerUserID: row.SellerUserID,
		Document:     cognition.Render(profile),
	})
}

// handlePreviewRental serves the rented document as HTML for human review.
// It goes through the same validation path as the JSON endpoint.
func (s *Server) handlePreviewRental(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	profile, _, err := s.rentals.Validate(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(cognition.Render(profile)), &buf); err != nil {
		httpError(w, errors.NewInternal(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("failed to write preview: %v", err)
	}
}

func (s *Server) handleRevokeRental(w http.ResponseWriter, r *http.Request) {
	if err := s.rentals.Revoke(r.Context(), chi.URLParam(r, "token")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type telemetryRequest struct {
	UserID          string            `json:"user_id"`
	HostFingerprint string            `json:"host_fingerprint,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// handleTelemetry records what the client reported and nothing more; absent
// fields stay empty rather than being filled from the server's own host.
func (s *Server) handleTelemetry(upsert func(ctx context.Context, rec *store.InstallRecord) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req telemetryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, errors.NewInvalidRequest("invalid JSON body"))
			return
		}

		rec := &store.InstallRecord{
			UserID:          req.UserID,
			HostFingerprint: req.HostFingerprint,
			Metadata:        req.Metadata,
		}

		if err := upsert(r.Context(), rec); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// httpError writes the JSON error envelope. Token state details never leak
// to buyers; expired and revoked tokens share one external code and message.
func httpError(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.Error); ok {
		writeJSON(w, e.Status, errorBody(e.ExternalCode(), e.ExternalMessage()))
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody("INTERNAL", "internal error"))
}

func errorBody(code, message string) map[string]any {
	return map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
