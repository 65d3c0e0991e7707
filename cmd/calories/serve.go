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

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const addrFlag = "addr"

func newServeCommand(load loadFunc) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		addrFlag: &cobraflags.StringFlag{
			Name:  addrFlag,
			Value: "",
			Usage: "Listen address, overrides server.addr",
		},
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr := flags[addrFlag].GetString(); addr != "" {
				cfg.Server.Addr = addr
			}
			if cfg.Auth.TokenSecret == "" {
				return errors.New("auth.token_secret is required to serve (set CALORIES_AUTH_TOKEN_SECRET)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func serve(ctx context.Context, a *app) error {
	srv := &http.Server{
		Addr: a.cfg.Server.Addr,
		// h2c for HTTP/2 without TLS, used by Connect clients.
		Handler:      h2c.NewHandler(a.handler(), &http2.Server{}),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down", "timeout", a.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
