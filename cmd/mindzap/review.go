package main

import (
	"github.com/spf13/cobra"

	"github.com/conorfennell/mindzap/internal/drill"
	"github.com/conorfennell/mindzap/internal/review"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due flashcards in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runReview,
	}
	cmd.Flags().String("user", "", "username (email) whose cards to review")
	cmd.Flags().Int("limit", 0, "maximum number of cards to review (default review.queue_limit)")
	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.user(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	svc := review.NewService(a.db, review.Config{
		MaxInterval: a.cfg.Review.MaxInterval,
		QueueLimit:  a.cfg.Review.QueueLimit,
		MaxRetries:  a.cfg.Review.MaxRetries,
	}, a.logger)

	_, err = drill.NewSession(svc, u.ID, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context(), limit)
	return err
}
