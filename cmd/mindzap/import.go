package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/mindzap/internal/gitsource"
	"github.com/conorfennell/mindzap/internal/importer"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [PATH|GIT_URL...]",
		Short: "Import Q/A markdown decks as flashcards",
		Long: `Import markdown decks from local directories or git repositories.

Each location is remembered; run import without arguments to re-import
every known source of the user.`,
		RunE: runImport,
	}
	cmd.Flags().String("user", "", "username (email) that owns the imported cards")
	cmd.Flags().Bool("prune", false, "delete cards that no longer appear in their source")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.user(cmd)
	if err != nil {
		return err
	}
	prune, _ := cmd.Flags().GetBool("prune")

	syncer := gitsource.NewSyncer(a.logger)
	syncer.Progress = cmd.ErrOrStderr()
	im := importer.New(a.db, syncer, a.cfg.Import.ReposDir, a.logger)

	var reports []*importer.Report
	if len(args) == 0 {
		reports, err = im.RunAll(cmd.Context(), u.ID, prune)
		if err != nil {
			return err
		}
	}
	for _, location := range args {
		report, err := im.Run(cmd.Context(), u.ID, location, prune)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No sources configured. Pass a directory or git URL to import.")
	}
	for _, r := range reports {
		fmt.Fprintf(out, "%s: %d file(s), %d card(s) parsed, %d added, %d already known, %d without answer, %d pruned\n",
			r.Source, r.Files, r.Parsed, r.Added, r.Skipped, r.Invalid, r.Pruned)
		for _, e := range r.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}
	return nil
}
