package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/mindzap/internal/config"
	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mindzap",
		Short:         "Spaced-repetition flashcards and quizzes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML config file")
	flags.String("db-driver", "", "database driver: sqlite or postgres")
	flags.String("db-dsn", "", "database data source name")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newServeCmd(), newImportCmd(), newReviewCmd())
	return root
}

// app is what every command needs: configuration, a logger and the database.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *storage.DB
}

func loadApp(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	db, err := storage.Open(cmd.Context(), cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", cfg.DB.Driver)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	logger.Debug("database opened", "driver", cfg.DB.Driver)

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// user resolves the --user flag of a command to an account.
func (a *app) user(cmd *cobra.Command) (*domain.User, error) {
	username, err := cmd.Flags().GetString("user")
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, errors.New("--user is required")
	}
	u, err := a.db.FindUserByUsername(cmd.Context(), username)
	if err != nil {
		return nil, errors.Wrapf(err, "user %s", username)
	}
	return u, nil
}
