package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/codeword/pkg/api"
	"github.com/cbodonnell/codeword/pkg/bridge"
	gameconstants "github.com/cbodonnell/codeword/pkg/game/constants"
	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/metrics"
	"github.com/cbodonnell/codeword/pkg/network"
	"github.com/cbodonnell/codeword/pkg/repositories"
	"github.com/cbodonnell/codeword/pkg/sessions"
	"github.com/cbodonnell/codeword/pkg/words"
	"github.com/cbodonnell/codeword/pkg/workers"
	"github.com/joho/godotenv"
)

func main() {
	wsPort := flag.Int("ws-port", 8888, "WebSocket port to listen on")
	apiPort := flag.Int("api-port", 9090, "admin API port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	sqlitePath := flag.String("sqlite-path", "codeword.db", "SQLite database path used when DATABASE_URL is not set")
	migrationsPath := flag.String("migrations", "./migrations", "path to the migrations directory")
	bridgeURL := flag.String("bridge-url", "", "conference bridge base URL")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "sqlite://" + *sqlitePath
	}

	u, err := url.Parse(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse connection string: %v", err))
	}

	var repository repositories.Repository
	switch u.Scheme {
	case "sqlite":
		repository, err = repositories.NewSQLiteRepository(ctx, u.Host, *migrationsPath+"/sqlite")
		if err != nil {
			panic(fmt.Sprintf("Failed to create SQLite repository: %v", err))
		}
	case "postgresql":
		repository = repositories.NewPostgresRepository(ctx, u.String())
	default:
		panic(fmt.Sprintf("Unknown database type %s", u.Scheme))
	}

	collector := metrics.NewCollector(metrics.NewCollectorOptions{
		Retention: gameconstants.MetricsRetention,
	})

	sessionManager := sessions.NewSessionManager(sessions.NewSessionManagerOptions{
		WordSource: words.NewDefaultSource(),
		Repository: repository,
		Collector:  collector,
		Retention:  gameconstants.MatchRetention,
	})

	clientManager := network.NewClientManager()
	router := network.NewEventRouter(network.NewEventRouterOptions{
		SessionManager: sessionManager,
		ClientManager:  clientManager,
	})

	wsServerOpts := network.NewWSServerOptions{
		Port:          *wsPort,
		ClientManager: clientManager,
		Router:        router,
	}
	tlsCertFile := os.Getenv("CODEWORD_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("CODEWORD_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		wsServerOpts.TLS = &network.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	wsServer := network.NewWSServer(wsServerOpts)
	go wsServer.Start(ctx)

	bridgeBase := *bridgeURL
	if bridgeBase == "" {
		bridgeBase = os.Getenv("BRIDGE_METRICS_URL")
	}
	if bridgeBase == "" {
		bridgeBase = "http://localhost:8080"
	}
	poller := bridge.NewPoller(bridge.NewPollerOptions{
		URL:       bridgeBase,
		Matches:   sessionManager,
		Collector: collector,
	})
	go poller.Start(ctx)

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme123"
		log.Warn("ADMIN_PASSWORD not set, using default password")
	}

	adminServer := api.NewAdminServer(api.NewAdminServerOptions{
		Port:           *apiPort,
		AdminPassword:  adminPassword,
		SessionManager: sessionManager,
		Collector:      collector,
		Repository:     repository,
		Bridge:         poller,
	})
	go adminServer.Start()

	retentionWorker := workers.NewRetentionWorker(workers.NewRetentionWorkerOptions{
		SessionManager: sessionManager,
		Interval:       time.Hour,
	})
	go retentionWorker.Start(ctx)

	metricsCleanupWorker := workers.NewMetricsCleanupWorker(workers.NewMetricsCleanupWorkerOptions{
		Collector: collector,
		Interval:  5 * time.Minute,
	})
	go metricsCleanupWorker.Start(ctx)

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := adminServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop admin API server: %v", err)
	}
	sessionManager.Teardown(shutdownCtx)
	if err := repository.Close(shutdownCtx); err != nil {
		log.Error("Failed to close repository: %v", err)
	}
}
