package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	clickpulse "github.com/set-night/clickpulse"
	"github.com/set-night/clickpulse/internal/auth"
	"github.com/set-night/clickpulse/internal/chain"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/handler"
	"github.com/set-night/clickpulse/internal/metrics"
	"github.com/set-night/clickpulse/internal/repository"
	"github.com/set-night/clickpulse/internal/service"
	"github.com/set-night/clickpulse/internal/storage"
	"github.com/set-night/clickpulse/internal/telegram"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(clickpulse.MigrationsFS, "migrations")
	if err != nil {
		return err
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		return err
	}

	store := repository.NewPGStore(pool, cfg.StoreTxTimeout, m.ObserveTx)

	// Chain
	client, err := chain.Dial(ctx, cfg.EthRPCURL, cfg.ChainID)
	if err != nil {
		return err
	}
	defer client.Close()

	treasury, err := chain.NewTreasury(client, cfg.ChainID, cfg.TreasuryPrivateKey, cfg.TreasuryAddress)
	if err != nil {
		return err
	}
	slog.Info("treasury loaded", "address", treasury.Address().Hex(), "chain_id", cfg.ChainID)

	// Ledger alerts
	var alerter service.Alerter
	if cfg.AlertsEnabled() {
		b, err := bot.New(cfg.LogTelegramBotToken)
		if err != nil {
			return err
		}
		alerter = telegram.NewLedgerAlerter(b, cfg)
	}

	// Object storage
	uploads, err := storage.NewPresigner(storage.Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Bucket:          cfg.S3Bucket,
		UseSSL:          cfg.S3UseSSL,
	})
	if err != nil {
		return err
	}

	// Tokens
	userTokens, err := auth.NewIssuer(cfg.JWTSecret, auth.AudienceRequester, cfg.TokenTTL)
	if err != nil {
		return err
	}
	workerTokens, err := auth.NewIssuer(cfg.WorkerJWTSecret, auth.AudienceWorker, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// Initialize services
	signIn := service.NewSignInService(store, chain.WalletVerifier{}, userTokens, workerTokens)
	tasks := service.NewTaskService(store, chain.NewPaymentVerifier(client, cfg.ChainID), cfg.TreasuryAddress)
	assignment := service.NewAssignmentService(store)
	submissions := service.NewSubmissionService(store, m)
	payouts := service.NewPayoutService(store, treasury, alerter, m, cfg.TransferTimeout)
	reconciler := service.NewReconciler(store, treasury, alerter, m, cfg.IntentGracePeriod)

	h := handler.New(handler.Deps{
		Cfg:         cfg,
		SignIn:      signIn,
		Tasks:       tasks,
		Assignment:  assignment,
		Submissions: submissions,
		Payouts:     payouts,
		Uploads:     uploads,
		UserAuth:    userTokens,
		WorkerAuth:  workerTokens,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting http server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return reconciler.Run(gctx, cfg.ReconcileInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
