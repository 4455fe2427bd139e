package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/api"
	"github.com/mmbarrys/navigara/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the organization graph API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default is server.addr from config)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap("serve")

	graphs, err := newGraphProvider(config.Provider, logger)
	if err != nil {
		logger.Fatal("creating a graph provider", zap.Error(err))
	}

	srv, err := api.New(api.Options{
		Addr:           config.Server.Addr,
		AllowedOrigins: config.Server.AllowedOrigins,
		MaxBodyBytes:   config.Server.MaxBodyBytes,
		CacheSize:      config.Server.CacheSize,
		Provider:       graphs,
		Metrics:        metrics.NewRegistry(),
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("creating the api server", zap.Error(err))
	}

	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serving", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("reason", "signal received"))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
