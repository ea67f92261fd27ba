package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/carebridge-health/portal/internal/config"
	"github.com/carebridge-health/portal/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	adminOrganization string
	adminEmail        string
	adminPassword     string
	adminFullName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an organization (if it does not exist) and an admin profile in
it. Flags override the ADMIN_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		if adminOrganization != "" {
			cfg.AdminBootstrap.Organization = adminOrganization
		}
		if adminEmail != "" {
			cfg.AdminBootstrap.Email = adminEmail
		}
		if adminPassword != "" {
			cfg.AdminBootstrap.Password = adminPassword
		}
		if adminFullName != "" {
			cfg.AdminBootstrap.FullName = adminFullName
		}

		if cfg.AdminBootstrap.Organization == "" || cfg.AdminBootstrap.Email == "" || cfg.AdminBootstrap.Password == "" {
			return fmt.Errorf("organization, email, and password are required")
		}

		logger := config.NewLogger(cfg.Logging)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return err
		}

		if err := bootstrapAdmin(ctx, cfg, repo, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "admin account ready")
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminOrganization, "organization", "", "organization name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminFullName, "full-name", "", "admin full name")
}
