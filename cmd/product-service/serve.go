package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/app/background"
	"github.com/LavaJover/shvark-product-service/internal/app/setup"
	"github.com/LavaJover/shvark-product-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-product-service/internal/delivery/http/handlers"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the gRPC health server and the topic consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	deps, err := setup.InitializeDependencies(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			a.log.Error("failed to close dependencies", "error", err)
		}
	}()

	health := grpcapi.NewHealthHandler()
	tasks := background.NewBackgroundTasks(deps.Messaging.Consumer, deps.PingDB, health, a.log.With("component", "background"))
	if err := tasks.StartAll(ctx); err != nil {
		return fmt.Errorf("start background tasks: %w", err)
	}

	httpHandler, err := handlers.NewHTTPHandler(
		deps.ProductUsecase,
		deps.Messaging.Producer,
		deps.Messaging.Inbox,
		tasks.Ready,
		deps.Registry,
		a.log.With("component", "http"),
	)
	if err != nil {
		return fmt.Errorf("init http handler: %w", err)
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.HTTPServer.Host, a.cfg.HTTPServer.Port),
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpcapi.NewGRPCServer(health)
	lis, err := net.Listen("tcp", net.JoinHostPort(a.cfg.GRPCServer.Host, a.cfg.GRPCServer.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		a.log.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		a.log.Info("grpc server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case runErr = <-errCh:
		a.log.Error("server failed", "error", runErr)
	}

	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	return runErr
}
