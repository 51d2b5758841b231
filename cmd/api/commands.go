package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-live/internal/app"
	"github.com/gokatarajesh/quiz-live/internal/config"
	"github.com/gokatarajesh/quiz-live/internal/question"
)

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		seedFile string
	)

	root := &cobra.Command{
		Use:           "quiz-live",
		Short:         "Live trivia session server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "configs/.env", "dotenv file loaded outside production")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile, seedFile)
		},
	}
	serve.Flags().StringVar(&seedFile, "seed", "", "question set (YAML or JSON) registered as a session at start-up")

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a question set file without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}

	root.AddCommand(serve, validate)
	// A bare invocation serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func runServe(ctx context.Context, envFile, seedFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if os.Getenv("APP_ENV") != "production" && envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	}

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cfg, err := config.Load(loadCtx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := app.Options{}
	if seedFile != "" {
		set, err := question.LoadFile(seedFile)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		opts.Seed = &set
	}

	instance, err := app.New(loadCtx, cfg, opts)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	return instance.Run(ctx)
}

func runValidate(cmd *cobra.Command, path string) error {
	set, err := question.LoadFile(path)
	if err != nil {
		return err
	}
	if err := question.Validate(set.Questions); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %q is valid (%d questions)\n", path, set.Title, len(set.Questions))
	return nil
}
