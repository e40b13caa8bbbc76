// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/ecg-hub/internal/hub"
	"github.com/taibuivan/ecg-hub/internal/platform/config"
	"github.com/taibuivan/ecg-hub/internal/platform/constants"
	"github.com/taibuivan/ecg-hub/internal/platform/middleware"
	requestutil "github.com/taibuivan/ecg-hub/internal/platform/request"
	"github.com/taibuivan/ecg-hub/internal/platform/respond"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// # Hub Status

// HubStatus is the identification payload served at / and /status.
type HubStatus struct {
	Name       string `json:"name"`
	HubVersion string `json:"hub_version"`
	APIVersion string `json:"api_version"`
	Mode       string `json:"mode"`
}

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
	certFile   string
	keyFile    string
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Hub handles the identity and token routes (/user, /token).
	Hub *hub.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(appCtx context.Context, cfg *config.Config, log *slog.Logger, keys *sec.Keys, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(appCtx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS())
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes and key discovery.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Get("/", statusHandler(cfg))
	r.Get("/status", statusHandler(cfg))
	r.Get("/pubkey", pubkeyHandler(keys))

	// # Application API
	// Identity and token route groups.
	r.Mount("/user", h.Hub.UserRoutes())
	r.Mount("/token", h.Hub.TokenRoutes())

	return &Server{
		router:   r,
		log:      log,
		certFile: cfg.SSLCert,
		keyFile:  cfg.SSLKey,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// statusHandler serves the hub identification payload.
func statusHandler(cfg *config.Config) http.HandlerFunc {
	mode := "release"
	if cfg.LogVerbose {
		mode = "debug"
	}

	status := HubStatus{
		Name:       constants.HubName,
		HubVersion: constants.AppVersion,
		APIVersion: constants.HubAPIVersion,
		Mode:       mode,
	}

	return func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, status)
	}
}

// pubkeyHandler exports the hub's Ed25519 verification key.
//
// GET /pubkey?format=hex|pem (default hex)
//
// Game servers fetch this once and verify PITs locally without calling back.
func pubkeyHandler(keys *sec.Keys) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		switch requestutil.Query(request, "format") {
		case "pem":
			respond.Text(writer, keys.PublicPEM)
		default:
			respond.Text(writer, keys.PublicHex)
		}
	}
}

// # Server Lifecycle

// ListenAndServe starts the server, speaking TLS when a certificate pair was
// configured and plain HTTP otherwise.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	if s.certFile != "" && s.keyFile != "" {
		s.log.Info("server starting (https)", slog.String("addr", s.httpServer.Addr))
		return s.httpServer.ListenAndServeTLS(s.certFile, s.keyFile)
	}

	s.log.Info("server starting (http)", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
