package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdelaire/autoapprove/adapters/telegram_api"
	"github.com/jdelaire/autoapprove/adapters/telegram_webhook"
	"github.com/jdelaire/autoapprove/core"
	"github.com/jdelaire/autoapprove/internal/config"
	"github.com/jdelaire/autoapprove/internal/keychain"
	"github.com/jdelaire/autoapprove/internal/telemetry"
)

const (
	serviceName     = "autoapprove"
	shutdownTimeout = 10 * time.Second
	cliCallTimeout  = 30 * time.Second
)

var version = "dev"

type app struct {
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Telegram bot that auto-approves channel join requests",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serve := a.serveCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, a.webhookCmd(), a.tokenCmd())
	return root
}

// load reads the configuration once and builds the process logger.
func (a *app) load() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

func (a *app) apiClient() *telegram_api.Client {
	return telegram_api.New(a.cfg.BotToken, a.logger).WithBaseURL(a.cfg.APIBaseURL)
}

func (a *app) serveCmd() *cobra.Command {
	var skipWebhook bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Register the webhook and serve Telegram updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			return a.serve(cmd.Context(), skipWebhook)
		},
	}
	cmd.Flags().BoolVar(&skipWebhook, "skip-webhook", false, "do not call setWebhook on startup")
	return cmd
}

func (a *app) serve(ctx context.Context, skipWebhook bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flushSentry, err := telemetry.InitSentry(a.cfg.SentryDSN, version)
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	defer flushSentry()

	if a.cfg.Tracing {
		shutdownTracer, err := telemetry.InitTracer(serviceName, os.Stdout)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				a.logger.Error("tracer shutdown", "error", err)
			}
		}()
	}

	api := a.apiClient()
	dispatcher := core.NewDispatcher(core.NewActions(api, a.cfg.ChannelURL), a.logger)
	handler := telegram_webhook.New(dispatcher, a.logger)

	if !skipWebhook {
		core.RegisterWebhook(ctx, api, a.cfg.WebhookURL(), a.logger)
	}

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           telegram_webhook.NewRouter(handler, a.cfg.WebhookPath()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *app) webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Register URL/webhook/<token> with Telegram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCallTimeout)
			defer cancel()
			if !core.RegisterWebhook(ctx, a.apiClient(), a.cfg.WebhookURL(), a.logger) {
				return errors.New("setWebhook failed")
			}
			return nil
		},
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show the registered webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCallTimeout)
			defer cancel()
			wi, err := core.GetWebhookInfo(ctx, a.apiClient())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url: %s\npending updates: %d\n", wi.URL, wi.PendingUpdateCount)
			if wi.LastErrorMessage != "" {
				fmt.Fprintf(out, "last error: %s (%s)\n", wi.LastErrorMessage, time.Unix(wi.LastErrorDate, 0).Format(time.RFC3339))
			}
			return nil
		},
	}

	var dropPending bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCallTimeout)
			defer cancel()
			if err := core.DeleteWebhook(ctx, a.apiClient(), dropPending); err != nil {
				return err
			}
			a.logger.Info("webhook deleted", "drop_pending_updates", dropPending)
			return nil
		},
	}
	del.Flags().BoolVar(&dropPending, "drop-pending", false, "drop updates Telegram has queued")

	cmd.AddCommand(set, info, del)
	return cmd
}

func (a *app) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Store the bot token in the system keychain",
	}

	set := &cobra.Command{
		Use:   "set <token>",
		Short: "Save the bot token used when BOT_TOKEN is unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return keychain.StoreBotToken(args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored bot token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return keychain.DeleteBotToken()
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
