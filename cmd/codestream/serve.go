// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/codestream/internal/telemetry"
	"github.com/petar-djukic/codestream/pkg/codestream"
)

// newServeCmd creates the "serve" command.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API",
		Long:  "Serve exposes POST /api/agent-chat/stream, which answers with one NDJSON edit event per line.",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().String("trace-exporter", "none", "Trace exporter (none, stdout, otlp)")
	cmd.Flags().String("otlp-endpoint", "localhost:4317", "OTLP gRPC endpoint")
	cmd.Flags().Bool("otlp-insecure", true, "Use plaintext for OTLP")
	viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("trace-exporter", cmd.Flags().Lookup("trace-exporter"))
	viper.BindPFlag("otlp-endpoint", cmd.Flags().Lookup("otlp-endpoint"))
	viper.BindPFlag("otlp-insecure", cmd.Flags().Lookup("otlp-insecure"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Exporter:       viper.GetString("trace-exporter"),
		Endpoint:       viper.GetString("otlp-endpoint"),
		Insecure:       viper.GetBool("otlp-insecure"),
		ServiceName:    "codestream",
		ServiceVersion: version,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	svc, err := codestream.New(ctx, serviceConfig(logger))
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	return svc.ListenAndServe(ctx, viper.GetString("addr"))
}

// serviceConfig maps the global flags to a service config.
func serviceConfig(logger *slog.Logger) codestream.Config {
	return codestream.Config{
		Provider:      viper.GetString("provider"),
		Model:         viper.GetString("model"),
		Region:        viper.GetString("region"),
		Profile:       viper.GetString("profile"),
		OpenAIAPIKey:  viper.GetString("openai-api-key"),
		OpenAIBaseURL: viper.GetString("openai-base-url"),
		MaxTokens:     viper.GetInt("max-tokens"),
		Timeout:       viper.GetDuration("timeout"),
		WorkspaceDir:  viper.GetString("workspace-dir"),
		AutoCommit:    viper.GetBool("auto-commit"),
		DirtyCommit:   viper.GetBool("dirty-commits"),
		HistoryLimit:  viper.GetInt("history-limit"),
		Registerer:    prometheus.DefaultRegisterer,
		Gatherer:      prometheus.DefaultGatherer,
		Logger:        logger,
	}
}
