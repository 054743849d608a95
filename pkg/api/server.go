package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/codeword/pkg/api/handlers"
	apimiddleware "github.com/cbodonnell/codeword/pkg/api/middleware"
	"github.com/cbodonnell/codeword/pkg/bridge"
	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/metrics"
	"github.com/cbodonnell/codeword/pkg/repositories"
	"github.com/cbodonnell/codeword/pkg/sessions"
	"github.com/gorilla/mux"
)

type AdminServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAdminServerOptions struct {
	Port           int
	TLS            *TLSConfig
	AdminPassword  string
	SessionManager *sessions.SessionManager
	Collector      *metrics.Collector
	Repository     repositories.Repository
	Bridge         *bridge.Poller
}

// NewAdminServer creates a new http.Server for the admin API. Everything
// under /api/admin except login requires the admin session cookie.
func NewAdminServer(opts NewAdminServerOptions) *AdminServer {
	auth := apimiddleware.NewAuth(opts.AdminPassword)

	router := mux.NewRouter()
	router.HandleFunc("/api/admin/login", handlers.HandleLogin(auth)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/logout", handlers.HandleLogout()).Methods(http.MethodPost)

	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Use(apimiddleware.NewAdminMiddleware(auth))
	admin.HandleFunc("/games", handlers.HandleListGames(opts.SessionManager)).Methods(http.MethodGet)
	admin.HandleFunc("/games/{code}", handlers.HandleGetGame(opts.SessionManager)).Methods(http.MethodGet)
	admin.HandleFunc("/games/{code}/metrics", handlers.HandleGameMetrics(opts.Collector)).Methods(http.MethodGet)
	admin.HandleFunc("/archive", handlers.HandleListArchive(opts.Repository)).Methods(http.MethodGet)
	admin.HandleFunc("/bridge", handlers.HandleBridgeStatus(opts.Bridge)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &AdminServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the AdminServer
func (s *AdminServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("Admin API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("Admin API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Admin API server closed")
			return
		}
		log.Error("Admin API server error: %v", err)
	}
}

// Stop stops the AdminServer
func (s *AdminServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *AdminServer) Handler() http.Handler {
	return s.server.Handler
}
