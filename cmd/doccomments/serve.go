package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httphandler "github.com/ericfisherdev/doccomments/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/doccomments/internal/adapter/driving/web"
	"github.com/ericfisherdev/doccomments/internal/application"
	"github.com/ericfisherdev/doccomments/internal/version"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve embeddable comment threads and the JSON API",
		Long: `Serve HTML fragments for embedding issue comment threads:

  GET /embed/issues/{issue}                        thread region with page 1
  GET /embed/threads/{thread}/comments?issue=&page= next page of a thread

and a JSON API under /api/v1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, v, cmd)
		},
	}

	cmd.Flags().String("listen-addr", "", "address to listen on (default 127.0.0.1:8080)")
	cmd.Flags().Duration("thread-ttl", 0, "evict threads idle for longer than this")

	bindFlags(v, cmd.Flags().Lookup, map[string]string{
		"listen_addr": "listen-addr",
		"thread_ttl":  "thread-ttl",
	})

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper, cmd *cobra.Command) error {
	// 1. Load configuration (fail fast on invalid settings).
	cfg, logger, err := loadConfig(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	policy, _ := cfg.Policy()
	logger.Info("config loaded",
		"repo", cfg.Repo,
		"listen_addr", cfg.ListenAddr,
		"per_page", cfg.PerPage,
		"body_policy", policy,
		"thread_ttl", cfg.ThreadTTL,
		"authenticated", cfg.GitHub.Token != "",
	)

	// 2. Wire the GitHub adapter and services.
	source, err := newCommentSource(cfg)
	if err != nil {
		return err
	}
	threadSvc := application.NewThreadService(source, logger)
	threads := application.NewThreadRegistry(cfg.ThreadTTL, logger)
	go threads.Start(ctx)

	// 3. Register API and embed routes.
	mux := http.NewServeMux()
	body := webhandler.NewBodyRenderer(policy)
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(threadSvc, body, cfg.Repo, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(
		threadSvc,
		threads,
		body,
		cfg.PublicURL,
		logger,
	))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr, "version", version.Short())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	// 4. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	// 5. Graceful shutdown with 10s timeout for in-flight GitHub requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
