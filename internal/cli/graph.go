package cli

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/profile"
	"github.com/roach88/stlc/internal/rategraph"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	LineSpeed float64
	Events    bool // list every rate event
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <profile>",
		Short: "Compute the peak offered load of a profile",
		Long: `Compute the rate graph of a stream profile.

Every self-start stream is walked along its next chain. Streams add their
rate while they transmit; the peak of the running sum is the highest load
the table can offer at once.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.LineSpeed, "line-speed", ir.DefaultLineSpeed, "port line speed in bits/sec")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "list rate events")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prof, err := loadProfile(formatter, path, profile.LoadModeFailFast)
	if err != nil {
		return err
	}

	g, err := rategraph.Build(prof.Streams,
		rategraph.WithLineSpeed(opts.LineSpeed),
		rategraph.WithLogger(rategraphLogger),
	)
	if err != nil {
		var diag *compiler.Diagnostic
		if errors.As(err, &diag) {
			_ = formatter.Error(string(diag.Code), diag.Error(), diag)
		} else {
			_ = formatter.Error(profile.ErrCodeGeneric, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "rate graph failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(g)
	}

	writeGraph(formatter.Writer, g, opts.Events)
	return nil
}

// writeGraph prints a human-readable rate graph summary.
func writeGraph(w io.Writer, g *rategraph.Graph, events bool) {
	total := g.Total()
	fmt.Fprintln(w, "✓ Rate graph")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  peak:     %s, %s (L2), %s (L1)\n", pps(g.MaxPPS()), bps(g.MaxBPS()), bps(g.MaxBPSL1()))
	fmt.Fprintf(w, "  fixed:    %s, %s (L2)\n", pps(g.Fixed().PPS), bps(g.Fixed().BPSL2))
	fmt.Fprintf(w, "  total:    %s, %s (L2)\n", pps(total.PPS), bps(total.BPSL2))
	fmt.Fprintf(w, "  duration: %s\n", duration(g.ExpectedDuration()))
	fmt.Fprintf(w, "  events:   %s\n", humanize.Comma(int64(len(g.Events()))))
	if g.LoopDetected() {
		fmt.Fprintln(w, "  loop:     detected")
	}

	if !events {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Events:")
	for _, ev := range g.Events() {
		sign := "+"
		if ev.DeltaPPS < 0 {
			sign = "-"
		}
		fmt.Fprintf(w, "  %12.6fs  stream %-6d %s%s\n", ev.Time, ev.StreamID, sign, pps(math.Abs(ev.DeltaPPS)))
	}
}

func pps(v float64) string {
	return humanize.SIWithDigits(v, 2, "pps")
}

func bps(v float64) string {
	return humanize.SIWithDigits(v, 2, "bps")
}

func duration(seconds float64) string {
	if math.IsInf(seconds, 1) {
		return "unbounded"
	}
	return humanize.FtoaWithDigits(seconds, 6) + " s"
}
