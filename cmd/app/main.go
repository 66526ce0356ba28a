package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lending_go/internal/app"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: auto-discover)")
	pprofAddr := flag.String("pprof", "", "pprof listen address, e.g. localhost:6060 (disabled when empty)")
	flag.Parse()

	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, *configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		_ = bootstrap.Close()
		os.Exit(1)
	}
	bootstrap.PrintBanner()

	// 3. Pprof Server (for performance profiling)
	if *pprofAddr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", *pprofAddr))
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	slog.InfoContext(ctx, "✨ Lending dashboard fully operational. Press Ctrl+C to exit.")

	// 4. Run until signal
	runErr := bootstrap.Run(ctx)
	if err := bootstrap.Close(); err != nil {
		slog.Error("Shutdown cleanup failed", slog.Any("error", err))
	}
	if runErr != nil {
		slog.Error("❌ Stopped with error", slog.Any("error", runErr))
		os.Exit(1)
	}
}
