package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/stlc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB      string
	Limit   int
	Profile string // profile hash filter
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compile runs",
		Long: `List compile runs recorded with "stlc compile --db", newest first.

Examples:
  stlc history --db ./stlc.db
  stlc history --db ./stlc.db --limit 5
  stlc history --db ./stlc.db --profile <hash>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs (0 for all)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "only runs of the profile with this hash")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create an empty database
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("database not found: %s", opts.DB))
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("opening history: %v", err))
	}
	defer st.Close()

	ctx := commandContext(cmd)
	var runs []store.Run
	if opts.Profile != "" {
		runs, err = st.RunsForProfile(ctx, opts.Profile)
		if err == nil && opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[:opts.Limit]
		}
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeHistory, fmt.Sprintf("reading history: %v", err))
	}

	if formatter.Format == "json" {
		if runs == nil {
			runs = []store.Run{}
		}
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	for _, r := range runs {
		status := "✓"
		if !r.OK {
			status = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s #%d %s  %s  %s\n",
			status, r.Seq, r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.ProfilePath)
		fmt.Fprintf(formatter.Writer, "    hash %s  streams %s  errors %d  warnings %d",
			shortHash(r.ProfileHash), humanize.Comma(int64(r.StreamCount)), len(r.Errors), len(r.Warnings))
		if r.MaxPPS != nil && r.MaxBPS != nil {
			fmt.Fprintf(formatter.Writer, "  peak %s, %s", pps(*r.MaxPPS), bps(*r.MaxBPS))
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
