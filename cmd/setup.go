package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/urfave/cli/v3"
)

const maskedSecret = "********"

// Setup creates the config file when it is missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else if err := r.loadConfig(ctx, r.configPath); err != nil {
				return fmt.Errorf("failed to load created config: %w", err)
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	if r.config.Auth.JWTSecret == shared.DefaultConfig().Auth.JWTSecret {
		r.writePlain("⚠ auth.jwt_secret still has the example value; set EMOTUNE_AUTH_JWT_SECRET before serving.\n")
	}
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	return nil
}

// MigrateUp applies pending migrations.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return r.writeMigrationStatus(db)
}

// MigrateStatus prints every known migration and when it was applied.
func (r *Runner) MigrateStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	return r.writeMigrationStatus(db)
}

// MigrateRollback rolls back the most recent migration.
func (r *Runner) MigrateRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	r.logger.Info("rolled back latest migration")
	return r.writeMigrationStatus(db)
}

// ConfigInit writes the example config to the given path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Every key can be overridden with an %s* environment variable.\n", shared.EnvPrefix)
	return nil
}

// ConfigShow prints the resolved configuration as TOML with secrets masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	config.Auth.JWTSecret = mask(config.Auth.JWTSecret)
	config.Credentials.Spotify.ClientSecret = mask(config.Credentials.Spotify.ClientSecret)
	config.Cache.Password = mask(config.Cache.Password)
	config.Mail.SMTPPass = mask(config.Mail.SMTPPass)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	source := r.configPath
	if _, err := os.Stat(source); source == "" || err != nil {
		source = "defaults"
	}
	r.writePlain("# resolved from %s\n", source)
	return r.writePlain("%s", buf.String())
}

func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	if r.config.Database.Path != shared.MemoryDatabase {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}
	return db, nil
}

func (r *Runner) writeMigrationStatus(db *sql.DB) error {
	statuses, err := shared.MigrationStatuses(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.writePlainHeader("Migrations")
	for _, s := range statuses {
		applied := "pending"
		if s.AppliedAt != nil {
			applied = s.AppliedAt.Local().Format("2006-01-02 15:04:05")
		}
		r.writePlain("%04d  %-32s %s\n", s.Version, s.Name, applied)
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return maskedSecret
	}
	return secret[:2] + maskedSecret + secret[len(secret)-2:]
}
