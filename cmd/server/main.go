package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/mailtrap"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*BaseConfig]
	bunDB  *bun.DB
	auth   accounts.Authenticator
	auther accounts.HTTPAuthenticator
	repo   accounts.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(DefaultConfig()).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAccounts(ctx, app); err != nil {
		panic(err)
	}

	app.srv.Serve(app.Config().GetServer().GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	lgr := app.GetLogger("persistence")

	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetData().GetDSN())
	if err != nil {
		return err
	}

	migrations, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	lgr.Info("migrations applied", "dsn", app.Config().GetData().GetDSN())

	app.bunDB = bun.NewDB(db, sqlitedialect.New())

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

func WithAccounts(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	repo := accounts.NewRepositoryManager(app.bunDB)
	if err := repo.Validate(); err != nil {
		return err
	}
	app.repo = repo

	userProvider := accounts.NewUserProvider(repo.Users()).
		WithLogger(app.GetLogger("accounts:prv"))

	authenticator := accounts.NewAuthenticator(userProvider, cfg).
		WithLogger(app.GetLogger("accounts:auth")).
		WithActivitySink(activityLogger(app.GetLogger("accounts:activity")))
	app.auth = authenticator

	httpAuth, err := accounts.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("accounts:http"))
	app.auther = httpAuth

	mailer := app.Config().GetMailer()
	sender := mailtrap.New(mailer.GetToken(), mailtrap.Address{
		Email: mailer.GetSenderEmail(),
		Name:  mailer.GetSenderName(),
	})

	notifier, err := accounts.NewTemplateNotifier(sender)
	if err != nil {
		return err
	}
	notifier.WithLogger(app.GetLogger("accounts:mail"))

	accounts.RegisterAuthRoutes(app.srv.Router().Group("/auth"),
		func(ac *accounts.AuthController) *accounts.AuthController {
			ac.Repo = repo
			ac.Auther = httpAuth
			ac.Config = cfg
			ac.Notifier = notifier
			ac.BaseURL = app.Config().GetClient().GetBaseURL()
			ac.Activity = activityLogger(app.GetLogger("accounts:activity"))
			ac.WithLogger(app.GetLogger("accounts:ctrl"))
			return ac
		})

	return nil
}

// activityLogger turns account events into structured log lines
func activityLogger(lgr glog.Logger) accounts.ActivitySinkFunc {
	return func(ctx context.Context, event accounts.ActivityEvent) error {
		lgr.Info("activity",
			"type", event.EventType,
			"actor_id", event.Actor.ID,
			"actor_type", event.Actor.Type,
			"user_id", event.UserID,
		)
		return nil
	}
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
