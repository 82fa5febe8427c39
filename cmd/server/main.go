package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"sort"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/blogtype/auth"
)

// Config is the environment-driven server configuration
type Config struct {
	Addr                 string   `env:"ADDR" envDefault:":3000"`
	DatabaseURL          string   `env:"DATABASE_URL" envDefault:"file:blogtype.db?cache=shared"`
	JWTSecret            string   `env:"JWT_SECRET,required"`
	BaseURL              string   `env:"BASE_URL" envDefault:"http://localhost:3000"`
	TokenExpirationHours int      `env:"TOKEN_EXPIRATION_HOURS" envDefault:"72"`
	TokenIssuer          string   `env:"TOKEN_ISSUER" envDefault:"blogtype"`
	TokenAudience        []string `env:"TOKEN_AUDIENCE" envDefault:"blogtype"`
	Debug                bool     `env:"DEBUG" envDefault:"false"`
}

func (c Config) GetSigningKey() string   { return c.JWTSecret }
func (c Config) GetTokenExpiration() int { return c.TokenExpirationHours }
func (c Config) GetIssuer() string       { return c.TokenIssuer }
func (c Config) GetAudience() []string   { return c.TokenAudience }
func (c Config) GetBaseURL() string      { return c.BaseURL }

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("blogtype"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		lgr.GetLogger("config").Error("failed to parse environment", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		lgr.GetLogger("db").Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(ctx, db); err != nil {
		lgr.GetLogger("db").Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		lgr.GetLogger("tokens"),
	)

	mailer, err := auth.NewTemplateMailer(auth.NewLogSender(lgr.GetLogger("mail")))
	if err != nil {
		lgr.GetLogger("mail").Error("failed to build mailer", "error", err)
		os.Exit(1)
	}

	signupHandler := auth.NewSignupHandler(repo, tokens, mailer,
		auth.WithSignupLogger(lgr.GetLogger("signup")),
		auth.WithVerificationBaseURL(cfg.GetBaseURL()),
	)

	verifyHandler := auth.NewVerifyAccountHandler(repo, tokens,
		auth.WithVerifyLogger(lgr.GetLogger("verify")),
	)

	provider := auth.NewUserProvider(userTrackerAdapter{users: repo.Users()}).
		WithLogger(lgr.GetLogger("auth:prv"))

	auther := auth.NewAuthenticator(provider, cfg).
		WithLogger(lgr.GetLogger("auth"))

	controller := auth.NewAuthController(
		auth.WithSignupHandler(signupHandler),
		auth.WithVerifyHandler(verifyHandler),
		auth.WithAuthenticator(auther),
		auth.WithControllerLogger(lgr.GetLogger("http")),
		auth.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New()
	auth.RegisterAuthRoutes(app, controller)

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			lgr.GetLogger("http").Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.GetLogger("http").Info("listening", "addr", cfg.Addr)

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.GetLogger("http").Error("shutdown error", "error", err)
	}
}

// userTrackerAdapter narrows auth.Users to the UserTracker surface the
// login provider expects.
type userTrackerAdapter struct {
	users auth.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) GetByOAuth(ctx context.Context, provider, oauthID string) (*auth.User, error) {
	return a.users.GetByOAuth(ctx, provider, oauthID)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// applyMigrations runs the embedded migration files in lexical order.
func applyMigrations(ctx context.Context, db *bun.DB) error {
	migrations := auth.GetMigrationsFS()

	entries, err := fs.ReadDir(migrations, "data/sql/migrations")
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(migrations, path.Join("data/sql/migrations", name))
		if err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
