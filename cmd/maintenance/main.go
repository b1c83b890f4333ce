// Package main provides scoring maintenance utilities.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dompetkecil/scoring/internal/platform/config"
	"github.com/dompetkecil/scoring/internal/platform/otel"
	"github.com/dompetkecil/scoring/internal/tools/maintenance"
)

func main() {
	cfg, err := maintenance.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "scoring-maintenance")
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer func() {
		_ = shutdown(context.Background())
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := maintenance.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
