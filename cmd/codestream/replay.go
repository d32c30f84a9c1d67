// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/codestream/internal/events"
	"github.com/petar-djukic/codestream/internal/stream"
	"github.com/petar-djukic/codestream/internal/workspace"
	"github.com/petar-djukic/codestream/pkg/types"
)

// newReplayCmd creates the "replay" command.
func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded LLM response",
		Long: "Replay feeds a transcript through the edit pipeline in fixed-size chunks and " +
			"prints the resulting NDJSON events. No LLM is called.",
		RunE: runReplay,
	}

	cmd.Flags().StringP("transcript", "t", "", "Recorded LLM response (- for stdin, required)")
	cmd.Flags().String("html", "", "Seed file for index.html")
	cmd.Flags().String("css", "", "Seed file for styles.css")
	cmd.Flags().String("js", "", "Seed file for frontend.js")
	cmd.Flags().Int("chunk-size", stream.DefaultChunkSize, "Bytes per simulated stream chunk")
	cmd.Flags().StringP("out", "o", "", "Write events here instead of stdout")
	cmd.Flags().String("project", "", "Save the final files to this workspace project")
	cmd.Flags().StringP("prompt", "p", "", "Prompt recorded in history and the commit message")
	cmd.MarkFlagRequired("transcript")

	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	transcriptPath, _ := cmd.Flags().GetString("transcript")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	outPath, _ := cmd.Flags().GetString("out")
	project, _ := cmd.Flags().GetString("project")
	prompt, _ := cmd.Flags().GetString("prompt")

	seed, err := readSeed(cmd)
	if err != nil {
		return err
	}

	var transcript io.Reader = cmd.InOrStdin()
	if transcriptPath != "-" {
		f, err := os.Open(transcriptPath)
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer f.Close()
		transcript = f
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	session := stream.NewSession(stream.Config{Seed: seed, Prompt: prompt, Logger: logger})
	result, err := session.Run(ctx, stream.FromReader(transcript, chunkSize), events.NewEncoder(out))
	if err != nil {
		return err
	}

	if project == "" || len(result.Changed) == 0 {
		return nil
	}
	dir := viper.GetString("workspace-dir")
	if dir == "" {
		return fmt.Errorf("--project requires --workspace-dir")
	}
	ws := workspace.New(workspace.Config{
		Root:        dir,
		AutoCommit:  viper.GetBool("auto-commit"),
		DirtyCommit: viper.GetBool("dirty-commits"),
		Logger:      logger,
	})
	saved, err := ws.Save(project, result.Files, result.Changed, prompt)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %v to %s\n", saved.Written, saved.Dir)
	return nil
}

// readSeed loads the seed files named by the --html, --css and --js flags.
func readSeed(cmd *cobra.Command) (types.Seed, error) {
	read := func(flag string) (string, error) {
		path, _ := cmd.Flags().GetString(flag)
		if path == "" {
			return "", nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading --%s seed: %w", flag, err)
		}
		return string(b), nil
	}

	var (
		seed types.Seed
		err  error
	)
	if seed.HTML, err = read("html"); err != nil {
		return seed, err
	}
	if seed.CSS, err = read("css"); err != nil {
		return seed, err
	}
	if seed.JS, err = read("js"); err != nil {
		return seed, err
	}
	return seed, nil
}

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the last codestream commit of a project",
		Long:  "Undo hard-resets a project to the commit before its last session, if that session was committed by codestream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			dir := viper.GetString("workspace-dir")
			if dir == "" {
				return fmt.Errorf("undo requires --workspace-dir")
			}

			ws := workspace.New(workspace.Config{Root: dir})
			if err := ws.Undo(project); err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reverted last codestream commit of %s.\n", project)
			return nil
		},
	}
	cmd.Flags().String("project", "", "Project ID (required)")
	cmd.MarkFlagRequired("project")
	return cmd
}
