package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neweragit/newera-server/internal/api"
	"github.com/neweragit/newera-server/internal/api/handlers"
	"github.com/neweragit/newera-server/internal/audit"
	"github.com/neweragit/newera-server/internal/config"
	"github.com/neweragit/newera-server/internal/domain/access"
	"github.com/neweragit/newera-server/internal/domain/downloads"
	"github.com/neweragit/newera-server/internal/domain/events"
	"github.com/neweragit/newera-server/internal/domain/users"
	"github.com/neweragit/newera-server/internal/email"
	"github.com/neweragit/newera-server/internal/metrics"
	"github.com/neweragit/newera-server/internal/objectstore"
	"github.com/neweragit/newera-server/internal/storage/postgres"
	"github.com/neweragit/newera-server/internal/watermark"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the New Era HTTP server",
	Long: `Start the New Era HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Connect to PostgreSQL and start the metrics collector
- Serve the member API and the watermarked download endpoint
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg)
	logger.Info().Msg("starting New Era server")

	metrics.Init(Version, GitCommit, BuildDate)

	pool, err := newPool(cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	metrics.Registry.MustRegister(metrics.NewDBCollector(pool))

	handler, err := buildHandler(cfg, pool, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func newPool(cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MaxIdle)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// buildHandler wires repositories, domain services, and handlers into the
// router.
func buildHandler(cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, fmt.Errorf("repository init failed: %w", err)
	}

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("email service init failed: %w", err)
	}

	fetcher, err := objectstore.NewFetcher(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object store init failed: %w", err)
	}

	verifier := access.NewVerifier(repo.Magazines(), repo.Access(), logger)
	compositor := watermark.NewCompositor()
	auditor := audit.NewRecorder(repo.DownloadLogs(), logger)

	downloadsService := downloads.NewService(repo.Users(), repo.Magazines(), verifier, fetcher, compositor, auditor, logger)
	usersService := users.NewService(repo.Users(), repo.Codes(), mailer, cfg.Auth, logger)
	eventsService := events.NewService(repo.Events(), repo.Tickets(), repo.Users(), ticketMailer{mailer}, logger)

	return api.NewRouter(api.Deps{
		Config:    cfg,
		Logger:    logger,
		Health:    handlers.NewHealthHandler(cfg.ServiceName, pool),
		Download:  handlers.NewDownloadHandler(downloadsService),
		Auth:      handlers.NewAuthHandler(usersService),
		Profile:   handlers.NewProfileHandler(usersService),
		Magazines: handlers.NewMagazinesHandler(repo.Magazines()),
		Events:    handlers.NewEventsHandler(eventsService),
		Tickets:   handlers.NewTicketsHandler(eventsService),
	}), nil
}

// ticketMailer adapts the email service to the events package's mailer
// without the domain importing the email types.
type ticketMailer struct {
	svc *email.Service
}

func (m ticketMailer) SendTicketConfirmation(ctx context.Context, to string, data events.TicketEmail) error {
	return m.svc.SendTicketConfirmation(ctx, to, email.TicketData{
		FullName:   data.FullName,
		EventTitle: data.EventTitle,
		EventVenue: data.EventVenue,
		EventStart: data.EventStart,
		TicketCode: data.TicketCode,
	})
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
