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

	"github.com/carebridge-health/portal/internal/api"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/config"
	"github.com/carebridge-health/portal/internal/domain/analytics"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/domain/content"
	"github.com/carebridge-health/portal/internal/domain/documents"
	"github.com/carebridge-health/portal/internal/domain/hospitals"
	"github.com/carebridge-health/portal/internal/domain/settings"
	"github.com/carebridge-health/portal/internal/domain/trials"
	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/carebridge-health/portal/internal/email"
	"github.com/carebridge-health/portal/internal/storage/object"
	"github.com/carebridge-health/portal/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal HTTP server",
	Long: `Start the portal HTTP server and begin accepting API requests.

The server loads configuration from environment variables (a local .env
file is read when present), bootstraps the admin account if the ADMIN_*
variables are set, and shuts down gracefully on SIGINT/SIGTERM.`,
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

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("environment", cfg.Environment).Str("data_source", cfg.DataSource).Msg("starting portal server")

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdmin(ctx, cfg, repo, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	cancel()

	policy := authz.NewEvaluator(repo.Trials())
	auditLog := audit.NewLogger()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	emailSvc, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}

	if cfg.Storage.Endpoint == "" {
		return fmt.Errorf("STORAGE_ENDPOINT is required to serve documents")
	}
	store, err := object.NewMinioStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	bucketCtx, bucketCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.EnsureBucket(bucketCtx)
	bucketCancel()
	if err != nil {
		return fmt.Errorf("object storage bucket: %w", err)
	}

	usersSvc := users.NewService(repo.Users(), repo.Users(), policy, emailSvc, cfg.Server.BaseURL, logger)
	trialsSvc := trials.NewService(repo.Trials(), repo.Users(), policy, logger)
	contentSvc := content.NewService(repo.Content(), repo.Trials(), policy, logger)
	documentsSvc := documents.NewService(repo.Documents(), store, policy)
	settingsSvc := settings.NewService(repo.Settings(), policy)

	var hospitalsSvc *hospitals.Service
	var analyticsSvc *analytics.Service
	if cfg.DataSource == config.DataSourceMock {
		logger.Warn().Msg("running on the mock data source; hospital writes are disabled")
		hospitalsSvc = hospitals.NewMockService(hospitals.NewMockDataSource(), policy)
		analyticsSvc = analytics.NewService(analytics.NewMockDataSource(), policy)
	} else {
		hospitalsSvc = hospitals.NewService(repo.Hospitals(), policy)
		analyticsSvc = analytics.NewService(repo.Analytics(), policy)
	}

	handler := api.NewRouter(api.Deps{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Tokens:    tokens,
		Audit:     auditLog,
		Users:     usersSvc,
		Trials:    trialsSvc,
		Content:   contentSvc,
		Hospitals: hospitalsSvc,
		Analytics: analyticsSvc,
		Documents: documentsSvc,
		Settings:  settingsSvc,
		Version:   Version,
	})

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

// bootstrapAdmin creates the bootstrap organization and admin profile on
// first boot. Reruns are no-ops once the email exists.
func bootstrapAdmin(ctx context.Context, cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Organization == "" || bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	if _, err := repo.Users().GetByEmail(ctx, bootstrap.Email); err == nil {
		return nil
	} else if !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("check admin profile: %w", err)
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	// Organization and profile land together or not at all.
	var profile users.Profile
	err = repo.WithTx(ctx, func(ctx context.Context, txRepo *postgres.Repository) error {
		usersRepo := txRepo.Users()

		org, err := usersRepo.GetOrganizationByName(ctx, bootstrap.Organization)
		if errors.Is(err, users.ErrOrganizationNotFound) {
			org, err = usersRepo.CreateOrganization(ctx, bootstrap.Organization)
		}
		if err != nil {
			return fmt.Errorf("bootstrap organization: %w", err)
		}

		profile, err = usersRepo.Create(ctx, users.CreateParams{
			OrganizationID: org.ID,
			Email:          bootstrap.Email,
			FullName:       bootstrap.FullName,
			Role:           string(auth.RoleAdmin),
			PasswordHash:   hash,
		})
		if err != nil {
			return fmt.Errorf("create admin profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Environment == "production" {
		logger.Info().Str("profile_id", profile.ID).Msg("bootstrapped admin profile")
	} else {
		logger.Info().Str("profile_id", profile.ID).Str("email", bootstrap.Email).Msg("bootstrapped admin profile")
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
