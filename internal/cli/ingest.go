package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/core"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	DryRun bool
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Reconcile a CSV file into the catalog",
		Long: `Reads FILE, maps its headers onto catalog fields and inserts or updates
one product per row. Rows without a usable match key are skipped and listed.

With --dry-run nothing is written; the command reports what would change.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report changes without writing them")

	return cmd
}

func runIngest(cmd *cobra.Command, rootOpts *RootOptions, opts *IngestOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	svc, release, err := rootOpts.openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	if opts.DryRun {
		preview, err := svc.Preview(ctx, f)
		if err != nil {
			return fmt.Errorf("%s: %s", filepath.Base(path), core.FormatUserError(err))
		}
		if rootOpts.Format == "json" {
			return writeJSON(out, preview)
		}
		fmt.Fprintln(out, "dry run: nothing was written")
		printOutcome(out, preview.Outcome)
		return nil
	}

	outcome, err := svc.IngestNow(ctx, filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("%s: %s", filepath.Base(path), core.FormatUserError(err))
	}
	if rootOpts.Format == "json" {
		return writeJSON(out, outcome)
	}
	printOutcome(out, outcome)
	return nil
}

func printOutcome(w io.Writer, o catalog.Outcome) {
	fmt.Fprintf(w, "rows: %d  inserted: %d  updated: %d  skipped: %d\n",
		o.Rows, o.Inserted, o.Updated, o.Skipped)
	for _, s := range o.Skips {
		fmt.Fprintf(w, "  line %d: %s\n", s.Line, s.Reason)
	}
}
