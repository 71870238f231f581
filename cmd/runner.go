package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Varda003/EmoTune/internal/auth"
	"github.com/Varda003/EmoTune/internal/cache"
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/Varda003/EmoTune/internal/server"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built on first use from the resolved config, so commands like "config init" never open the database.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	app        *app
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
}

// app is the wired service graph shared by the commands of one process.
type app struct {
	db          *sql.DB
	tokens      *auth.TokenService
	accounts    *auth.AccountService
	resets      *auth.ResetAuthority
	ledger      *ledger.Ledger
	recommender *recommend.Orchestrator
	catalog     *services.SpotifyService
	cache       *cache.TrackCache
	detector    *tasks.DetectEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger. Services built afterwards log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, configCommand, serveCommand, recommendCommand, searchCommand, likedCommand, userCommand,
		detectCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the config at path, applies EMOTUNE_* overrides and the configured log level.
func (r *Runner) loadConfig(ctx context.Context, path string) error {
	config, err := shared.Resolve(ctx, path)
	if err != nil {
		return err
	}

	r.config = config
	r.configPath = path
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	return nil
}

// before is the root command hook that loads configuration for every subcommand.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.loadConfig(ctx, cmd.String("config")); err != nil {
		return ctx, fmt.Errorf("failed to load config: %w", err)
	}
	return ctx, nil
}

// services builds the service graph once per process.
func (r *Runner) services(ctx context.Context) (*app, error) {
	if r.app != nil {
		return r.app, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	config := r.config

	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	tokens, err := auth.NewTokenService(db, auth.TokenConfig{
		Secret: []byte(config.Auth.JWTSecret),
		Issuer: config.Auth.Issuer,
		TTL:    config.Auth.TokenTTL,
	}, r.logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	hasher := auth.NewPasswordHasher(config.Auth.BcryptCost)

	var sender auth.CodeSender = services.NewLogMailer(r.logger)
	if config.Mail.SMTPHost != "" {
		sender = services.NewSMTPMailer(config.Mail, r.logger)
	}

	a := &app{
		db:       db,
		tokens:   tokens,
		accounts: auth.NewAccountService(db, tokens, hasher, r.logger),
		resets:   auth.NewResetAuthority(db, tokens, hasher, sender, config.Auth.ResetCodeTTL, r.logger),
		ledger:   ledger.New(db, r.logger),
	}

	opts := []recommend.Option{
		recommend.WithLogger(r.logger),
		recommend.WithTimeout(config.Recommend.CatalogTimeout),
	}

	if config.Credentials.Spotify.Configured() {
		catalog, err := services.NewSpotifyService(
			config.Credentials.Spotify.ClientID,
			config.Credentials.Spotify.ClientSecret,
			services.WithSpotifyRateLimit(config.Recommend.RateLimit),
			services.WithSpotifyLogger(r.logger),
		)
		if err != nil {
			r.logger.Warn("spotify disabled, serving fallback recommendations", "error", err)
		} else {
			a.catalog = catalog
			opts = append(opts, recommend.WithCatalog(catalog))
		}
	}

	if config.Cache.RedisAddr != "" {
		trackCache, err := cache.New(config.Cache, r.logger)
		if err != nil {
			r.logger.Warn("cache disabled", "error", err)
		} else if err := trackCache.Ping(ctx); err != nil {
			r.logger.Warn("cache unreachable, continuing without it", "addr", config.Cache.RedisAddr, "error", err)
			trackCache.Close()
		} else {
			a.cache = trackCache
			opts = append(opts, recommend.WithCache(trackCache))
		}
	}

	a.recommender = recommend.New(opts...)

	if config.Classifier.URL != "" {
		a.detector = tasks.NewDetectEngine(services.NewClassifierService(config.Classifier.URL, config.Classifier.Timeout, nil))
	} else {
		a.detector = tasks.NewDetectEngine(nil)
	}

	r.app = a
	return a, nil
}

// serverDeps adapts the service graph to [server.Deps], leaving interface fields nil for disabled services.
func (a *app) serverDeps() server.Deps {
	deps := server.Deps{
		DB:          a.db,
		Accounts:    a.accounts,
		Tokens:      a.tokens,
		Resets:      a.resets,
		Ledger:      a.ledger,
		Recommender: a.recommender,
		Detector:    a.detector,
	}
	if a.catalog != nil {
		deps.Catalog = a.catalog
	}
	if a.cache != nil {
		deps.Cache = a.cache
	}
	return deps
}

// Close releases the database and cache connections if they were opened.
func (r *Runner) Close() error {
	if r.app == nil {
		return nil
	}

	var errs []error
	if r.app.cache != nil {
		errs = append(errs, r.app.cache.Close())
	}
	errs = append(errs, r.app.db.Close())
	r.app = nil
	return errors.Join(errs...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
