// Package server is the HTTP boundary of the adapter: the webhook receive
// endpoint and the OAuth callback endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ringbridge/ringbridge/internal/bot"
	"github.com/ringbridge/ringbridge/internal/config"
	"github.com/ringbridge/ringbridge/internal/message"
	"github.com/ringbridge/ringbridge/internal/platform"
)

// ValidationTokenHeader carries the platform's subscription-verification
// handshake token; it must be echoed back in the same header name.
const ValidationTokenHeader = "Validation-Token"

// Server hosts the webhook receiver and the OAuth callback.
type Server struct {
	bot   *bot.Bot
	oauth *platform.OAuthManager
	cfg   config.GatewayConfig
	log   *slog.Logger
	http  *http.Server
}

// New builds the server. oauth may be nil in pre-provisioned deployments
// where no callback endpoint is needed.
func New(cfg config.GatewayConfig, b *bot.Bot, oauth *platform.OAuthManager) *Server {
	s := &Server{
		bot:   b,
		oauth: oauth,
		cfg:   cfg,
		log:   slog.Default(),
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post(platform.ReceivePath, s.handleReceive)
	if oauth != nil {
		r.Get("/oauth", s.handleOAuth)
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("webhook gateway listening", "addr", s.http.Addr, "path", platform.ReceivePath)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleReceive accepts platform-delivered POSTs. A handshake request (one
// carrying a validation token) is answered synchronously without touching
// the pipeline; everything else is submitted into the ingest entry. The
// transaction is always acknowledged with a success status.
func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	if token := r.Header.Get(ValidationTokenHeader); token != "" {
		w.Header().Set(ValidationTokenHeader, token)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	var raw message.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		// Receipt is acknowledged regardless; a payload we cannot parse is
		// only worth a log line.
		s.log.Warn("webhook payload malformed", "error", err)
	}

	var once sync.Once
	ack := func() {
		once.Do(func() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
	}
	s.bot.HandleDelivery(r.Context(), &raw, ack)
	// The ingest stage owns the acknowledgment; this is the backstop for a
	// pipeline with no ingest handlers.
	ack()
}

// handleOAuth runs the authorization-code flow. A request without a code is
// a protocol error answered with a diagnostic body and no platform call.
func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	code := r.URL.Query().Get("code")
	if code == "" {
		s.log.Warn("oauth callback without authorization code")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"Error": "Looks like we're not getting code."})
		return
	}
	info, err := s.oauth.Authorize(r.Context(), code)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"Error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(info)
}
