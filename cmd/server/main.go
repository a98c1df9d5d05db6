package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/janisto/greeting-service/internal/config"
	applog "github.com/janisto/greeting-service/internal/platform/logging"
	"github.com/janisto/greeting-service/internal/server"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, config.Load, nil)
	stop()
	os.Exit(exitCode(os.Stderr, err))
}

// run loads configuration, binds the socket and serves until ctx is cancelled.
// Once the socket is bound its address is sent on ready, when non-nil.
func run(ctx context.Context, load func(context.Context, ...string) config.Config, ready chan<- string) error {
	if err := applog.Init(Version); err != nil {
		applog.LogError(ctx, "logger init error", err)
	}
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()

	srv := server.New(load(ctx), Version)
	if err := srv.Listen(ctx); err != nil {
		applog.LogError(ctx, "listen failed", err)
		return err
	}
	if ready != nil {
		ready <- srv.Addr()
	}
	if err := srv.Serve(ctx); err != nil {
		applog.LogError(ctx, "serve failed", err)
		return err
	}
	applog.LogInfo(context.Background(), "server exited")
	return nil
}

// exitCode writes a diagnostic for err to w and maps it to a process status.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
