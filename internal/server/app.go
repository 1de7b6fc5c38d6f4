// Package server wires the authd daemon: storage, the auth core, mail
// delivery, metrics, the gRPC API and the background expiry sweep.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/auth"
	"github.com/dmitrijs2005/gophauth/internal/config"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/mail"
	"github.com/dmitrijs2005/gophauth/internal/metrics"
	"github.com/dmitrijs2005/gophauth/internal/password"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/dmitrijs2005/gophauth/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    storage.Store
	auth     *auth.Auth
	queue    *mail.Queue
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

// NewApp opens and migrates storage and builds the auth core. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(c.LogFormat, c.LogLevel, w)

	store, err := storage.Open(ctx, c.StorageBackend, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	app := &App{config: c, logger: logger, store: store, registry: prometheus.NewRegistry()}
	app.metrics = metrics.NewCollector(app.registry)

	if err := app.initAuth(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) initAuth() error {
	c := app.config

	hasher, err := password.NewVerifier(password.Algorithm(c.PasswordAlgorithm), nil, password.NewBcrypt(c.BcryptCost))
	if err != nil {
		return err
	}

	policy := password.DefaultPolicy()
	opts := []auth.Option{
		auth.WithHasher(hasher),
		auth.WithPasswordPolicy(policy),
		auth.WithLogger(app.logger),
		auth.WithRecorder(app.metrics),
		auth.WithSessionTTL(c.SessionTTL),
		auth.WithVerificationTTL(c.VerificationTTL),
		auth.WithRequireEmailVerification(c.RequireEmailVerification),
		auth.WithSendVerificationOnRegister(c.SendVerificationOnRegister),
		auth.WithRevokeTokensOnResend(c.RevokeTokensOnResend),
	}
	if c.TokenHMACKey != "" {
		opts = append(opts, auth.WithTokenHMACKey([]byte(c.TokenHMACKey)))
	}

	sender, err := newSender(c, app.logger)
	if err != nil {
		return err
	}
	if sender != nil {
		app.queue = mail.NewQueue(sender, mail.QueueConfig{
			BufferSize:     c.MailQueueSize,
			BaseRetryDelay: c.MailRetryBase,
			MaxRetryDelay:  c.MailRetryMax,
			MaxAttempts:    c.MailMaxAttempts,
			RatePerSecond:  c.MailRatePerSecond,
		}, app.logger, app.metrics)
		app.queue.Start()
		opts = append(opts, auth.WithEmailSender(app.queue))
	}

	app.auth, err = auth.New(app.store, opts...)
	return err
}

func newSender(c *config.Config, l logging.Logger) (mail.Sender, error) {
	switch c.MailMode {
	case config.MailLog:
		return mail.NewLogSender(l), nil
	case config.MailSMTP:
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
			LinkBase: c.VerifyLinkBase,
		})
	default:
		return nil, nil
	}
}

// Auth returns the core the daemon serves.
func (app *App) Auth() *auth.Auth { return app.auth }

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.auth)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := NewHTTPServer(app.config.HTTPAddr, newRouter(app.registry, app.store), app.logger, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is canceled, a termination signal arrives or a
// server fails, then drains the mail queue and closes storage.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.store.Backend())

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.HTTPAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	job := cleanup.NewJob(app.auth, app.logger, app.metrics)
	job.Interval = app.config.CleanupInterval
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Loop(ctx)
	}()

	wg.Wait()

	return app.shutdown()
}

func (app *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	var err error
	if app.queue != nil {
		if qerr := app.queue.Close(ctx); qerr != nil {
			app.logger.Warn(ctx, "mail queue not drained", "error", qerr)
			err = qerr
		}
	}
	if cerr := app.store.Close(); cerr != nil {
		app.logger.Error(ctx, "close storage", "error", cerr)
		if err == nil {
			err = cerr
		}
	}
	app.logger.Info(ctx, "Stopped")
	return err
}
