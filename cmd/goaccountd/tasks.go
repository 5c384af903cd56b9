package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/store/postgres"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123456"
	defaultAdminName     = "Super Admin"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := provideConfig(*configPath)
			if err != nil {
				return err
			}
			if !isPostgresURL(cfg.Database.URL) {
				return errors.New("migrate requires a postgres DATABASE_URL")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			pool, err := postgres.Open(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if down {
				err = postgres.MigrateDown(ctx, pool)
			} else {
				err = postgres.Migrate(ctx, pool)
			}
			if err != nil {
				return err
			}

			version, err := postgres.SchemaVersion(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	return cmd
}

func newCreateAdminCommand(configPath *string) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := provideConfig(*configPath)
			if err != nil {
				return err
			}
			log := provideLogger(cfg)
			engineCfg, err := cfg.EngineConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			st, err := openStore(ctx, cfg.Database.URL, log)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := goAccount.New().
				WithConfig(engineCfg).
				WithStore(st).
				WithLogger(log).
				Build()
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			admin, err := engine.SeedAdmin(ctx, email, password, name)
			switch {
			case errors.Is(err, goAccount.ErrDuplicateEmail):
				fmt.Fprintf(out, "admin %s already exists\n", email)
				return nil
			case err != nil:
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(out, "created admin %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", defaultAdminEmail, "admin email")
	cmd.Flags().StringVar(&password, "password", defaultAdminPassword, "admin password")
	cmd.Flags().StringVar(&name, "name", defaultAdminName, "admin display name")
	return cmd
}

func isPostgresURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return true
	}
	return false
}
