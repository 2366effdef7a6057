package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/mindzap/internal/auth"
	"github.com/conorfennell/mindzap/internal/gitsource"
	"github.com/conorfennell/mindzap/internal/importer"
	"github.com/conorfennell/mindzap/internal/review"
	"github.com/conorfennell/mindzap/internal/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("server-addr", "", "address to listen on, e.g. :8080")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	reviews := review.NewService(a.db, review.Config{
		MaxInterval: cfg.Review.MaxInterval,
		QueueLimit:  cfg.Review.QueueLimit,
		MaxRetries:  cfg.Review.MaxRetries,
	}, a.logger)
	imports := importer.New(a.db, gitsource.NewSyncer(a.logger), cfg.Import.ReposDir, a.logger)

	handler := web.NewServer(web.Options{
		DB:         a.db,
		Review:     reviews,
		Importer:   imports,
		Tokens:     auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Logger:     a.logger,
		BcryptCost: cfg.Auth.BcryptCost,
		AuthRate:   cfg.Server.AuthRate,
		AuthBurst:  cfg.Server.AuthBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", cfg.Server.Addr, "mode", cfg.Mode, "db_driver", cfg.DB.Driver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-cmd.Context().Done():
	}

	a.logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
}
