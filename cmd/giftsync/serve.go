package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kerhoff/GiftSync/internal/api"
	"github.com/Kerhoff/GiftSync/internal/auth"
	"github.com/Kerhoff/GiftSync/internal/config"
	"github.com/Kerhoff/GiftSync/internal/handlers"
	"github.com/Kerhoff/GiftSync/internal/invite"
	"github.com/Kerhoff/GiftSync/internal/metrics"
	"github.com/Kerhoff/GiftSync/internal/ratelimit"
	"github.com/Kerhoff/GiftSync/internal/repository/memory"
	"github.com/Kerhoff/GiftSync/internal/repository/postgres"
	"github.com/Kerhoff/GiftSync/internal/service"
	"github.com/Kerhoff/GiftSync/internal/session"
	"github.com/Kerhoff/GiftSync/internal/telegram"
	"github.com/Kerhoff/GiftSync/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply migrations on start")
	return cmd
}

func serve(parent context.Context, skipMigrations bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	l.Info("Starting GiftSync...")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := openRepositories(ctx, cfg, l, skipMigrations)
	if err != nil {
		return err
	}
	defer closeRepos()

	m := metrics.New()
	authSvc := auth.NewService(repos.Users, repos.Sessions, l, cfg.JWTSecret, cfg.SessionTTL)
	inviteSvc := invite.NewService(repos.Lists, repos.Invites, repos.Members, l, m, cfg.AppBaseURL)
	svc := service.New(l, m, repos, authSvc, inviteSvc)

	sessions := session.NewManager(svc, session.DefaultIdle)
	go sessions.Run(ctx, 10*time.Minute)
	go svc.StartSessionSweeper(ctx, service.DefaultSweepInterval)

	inviteLimit := ratelimit.PerMinute(cfg.InviteRatePerMinute)
	go sweepLimiter(ctx, inviteLimit)

	opts := api.Options{
		CORSOrigins: cfg.CORSOrigins,
		InviteLimit: inviteLimit,
	}

	var bot *telegram.Bot
	if cfg.BotEnabled() {
		bot, err = telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			return fmt.Errorf("failed to create Telegram bot: %w", err)
		}
		handlers.Register(bot, handlers.Deps{
			Service:     svc,
			Sessions:    sessions,
			InviteLimit: inviteLimit,
			Logger:      l,
		})
		if cfg.UseWebhook() {
			opts.Webhook = bot.HandleWebhook
		}
	} else {
		l.Warn("TELEGRAM_TOKEN is not set, running without the Telegram bot")
	}

	apiServer := api.NewServer(svc, l, opts)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Updates may arrive as soon as the server listens.
	if bot != nil && cfg.UseWebhook() {
		if err := bot.SetWebhook(ctx, cfg.WebhookURL); err != nil {
			return err
		}
	}

	errCh := make(chan error, 2)
	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if bot != nil && !cfg.UseWebhook() {
		go func() {
			if err := bot.Start(ctx); err != nil {
				errCh <- fmt.Errorf("bot error: %w", err)
			}
		}()
	}

	l.Info("GiftSync started successfully")

	select {
	case <-ctx.Done():
		l.Info("Received shutdown signal...")
	case err := <-errCh:
		l.WithError(err).Error("Component failed, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	l.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Warn("HTTP server did not shut down cleanly")
	}

	l.Info("GiftSync stopped")
	return nil
}

// openRepositories returns the gateway selected by DATABASE_URL and a func
// releasing it.
func openRepositories(ctx context.Context, cfg *config.Config, l *logrus.Logger, skipMigrations bool) (service.Repositories, func(), error) {
	if cfg.UseMemory() {
		l.Warn("Using the in-memory store; data is lost on restart")
		db := memory.New()
		return service.Repositories{
			Users:    memory.NewUserRepository(db),
			Sessions: memory.NewSessionRepository(db),
			Lists:    memory.NewListRepository(db),
			Items:    memory.NewItemRepository(db),
			Links:    memory.NewLinkRepository(db),
			Invites:  memory.NewInviteRepository(db),
			Members:  memory.NewMemberRepository(db),
		}, func() {}, nil
	}

	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		return service.Repositories{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if !skipMigrations {
		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return service.Repositories{}, nil, err
		}
	}

	return service.Repositories{
		Users:    postgres.NewUserRepository(db.DB),
		Sessions: postgres.NewSessionRepository(db.DB),
		Lists:    postgres.NewListRepository(db.DB),
		Items:    postgres.NewItemRepository(db.DB),
		Links:    postgres.NewLinkRepository(db.DB),
		Invites:  postgres.NewInviteRepository(db.DB),
		Members:  postgres.NewMemberRepository(db.DB),
	}, func() { _ = db.Close() }, nil
}

func sweepLimiter(ctx context.Context, k *ratelimit.Keyed) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Sweep()
		}
	}
}
