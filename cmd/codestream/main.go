// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command codestream serves the streaming edit API and replays recorded
// LLM transcripts through the edit pipeline.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/codestream/internal/logging"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "codestream",
		Short:        "Streaming multi-file edit service",
		Long:         "codestream turns a streamed LLM response into live edits of index.html, frontend.js and styles.css.",
		SilenceUsage: true,
	}

	// Global flags.
	flags := rootCmd.PersistentFlags()
	flags.String("provider", "bedrock", "LLM provider (bedrock or openai)")
	flags.String("model", "", "Model ID")
	flags.String("region", "", "AWS region for Bedrock")
	flags.String("profile", "", "AWS credential profile")
	flags.String("openai-api-key", "", "API key for the openai provider")
	flags.String("openai-base-url", "", "OpenAI-compatible endpoint")
	flags.Int("max-tokens", 4096, "Maximum tokens for LLM response")
	flags.Duration("timeout", 0, "LLM request timeout (0 uses the default)")
	flags.String("workspace-dir", "", "Parent directory of saved projects (empty disables persistence)")
	flags.Bool("auto-commit", true, "Commit each saved session")
	flags.Bool("dirty-commits", true, "Commit manual edits before a save")
	flags.Int("history-limit", 1000, "Interaction history entries kept in memory")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log as JSON")

	// Bind flags to viper.
	for _, name := range []string{
		"provider", "model", "region", "profile", "openai-api-key", "openai-base-url",
		"max-tokens", "timeout", "workspace-dir", "auto-commit", "dirty-commits",
		"history-limit", "log-level", "log-json",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	// Env vars: CODESTREAM_MODEL, CODESTREAM_OPENAI_API_KEY, etc.
	viper.SetEnvPrefix("CODESTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".codestream")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print codestream version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codestream %s\n", version)
		},
	}
}

// newLogger builds the process logger from the global flags.
func newLogger() (*slog.Logger, error) {
	return logging.New(logging.Config{
		Level:   viper.GetString("log-level"),
		JSON:    viper.GetBool("log-json"),
		Service: "codestream",
	})
}
