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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marcus-qen/erplite/internal/metrics"
	"github.com/marcus-qen/erplite/internal/mockapi"
)

func newMockServerCmd(a *app) *cobra.Command {
	var (
		addr        string
		prefix      string
		metricsAddr string
		seed        bool
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory ERP backend for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			backend := mockapi.New(prefix)
			if seed {
				backend.SeedDemo()
			}

			if metricsAddr == "" {
				metricsAddr = a.cfg.MetricsAddr
			}
			logger := a.logger.Named("mock")

			servers := []*http.Server{{
				Addr:              addr,
				Handler:           metrics.Instrument(backend),
				ReadHeaderTimeout: 5 * time.Second,
			}}
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				servers = append(servers, &http.Server{
					Addr:              metricsAddr,
					Handler:           mux,
					ReadHeaderTimeout: 5 * time.Second,
				})
			}

			listeners := make([]net.Listener, 0, len(servers))
			for _, srv := range servers {
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					for _, l := range listeners {
						_ = l.Close()
					}
					return fmt.Errorf("listen on %s: %w", srv.Addr, err)
				}
				listeners = append(listeners, ln)
			}

			errCh := make(chan error, len(servers))
			for i, srv := range servers {
				logger.Info("listening", zap.String("addr", listeners[i].Addr().String()))
				go func(srv *http.Server, ln net.Listener) {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
				}(srv, listeners[i])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🚀 Mock API on http://%s%s\n", addr, prefix)
			if seed {
				fmt.Fprintf(out, "   admin: %s / %s\n", mockapi.DemoAdminEmail, mockapi.DemoAdminPassword)
				fmt.Fprintf(out, "   user:  %s / %s\n", mockapi.DemoUserEmail, mockapi.DemoUserPassword)
			}
			if metricsAddr != "" {
				fmt.Fprintf(out, "   metrics: http://%s/metrics\n", metricsAddr)
			}

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("shutdown", zap.String("addr", srv.Addr), zap.Error(err))
				}
			}
			return serveErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringVar(&prefix, "prefix", "/api", "API path prefix")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&seed, "seed", true, "load demo users and records")
	return cmd
}
