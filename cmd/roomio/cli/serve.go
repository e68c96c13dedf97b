package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomio/roomio/internal/app"
	billinghttp "github.com/roomio/roomio/internal/billing/http"
	"github.com/roomio/roomio/internal/billing/state"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the billing state gateway",
	Long: `Serve the billing state gateway over HTTP.

Requests carrying "Authorization: Bearer <token>" call the backend with that
token and read a state kept for that token alone. Other requests fall back to
the stored token and share one anonymous state.`,
	Example: `  # Serve on APP_ADDR
  roomio serve

  # Serve on another address
  roomio serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default APP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return nil
	}

	rt, err := newRuntime(cmd, runtimeOptions{gateway: true, metrics: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = rt.cfg.AppAddr
	}

	sessions := state.NewSessions(rt.client, rt.logger, rt.cfg.PageSize, rt.cfg.GatewaySessions)
	router := app.NewRouter(app.RouterParams{
		Logger:         rt.logger,
		Config:         rt.cfg,
		BillingHandler: billinghttp.NewHandler(rt.logger, sessions, rt.client),
		Metrics:        rt.metrics,
	})
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  rt.cfg.AppReadTimeout,
		WriteTimeout: rt.cfg.AppWriteTimeout,
	}
	return listen(cmd.Context(), rt.logger, server)
}

// listen serves until ctx ends, then shuts the server down gracefully.
func listen(ctx context.Context, logger *slog.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("http server", slog.Any("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
