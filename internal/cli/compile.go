package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/profile"
	"github.com/roach88/stlc/internal/rategraph"
	"github.com/roach88/stlc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Factor    float64 // global rate multiplier
	LineSpeed float64 // port line speed in bits/sec
	Output    string  // output file path
	DB        string  // history database path
}

// CompiledStream is one entry of a compiled program in JSON output.
type CompiledStream struct {
	OriginalID int       `json:"original_id"`
	Stream     ir.Stream `json:"stream"`
}

// CompilationResult is the JSON form of a compiled program.
type CompilationResult struct {
	ProfileHash   string                 `json:"profile_hash"`
	Factor        float64                `json:"factor"`
	AllContinuous bool                   `json:"all_continuous"`
	Streams       []CompiledStream       `json:"streams"`
	Warnings      []*compiler.Diagnostic `json:"warnings"`
	RunID         string                 `json:"run_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <profile>",
		Short: "Compile a stream profile",
		Long: `Compile a stream profile into a program with dense stream ids.

The profile is a directory of CUE files, a single .cue file, or a
.yaml/.json file with a streams list. All findings are reported at once.
With --db, the outcome is recorded in the compile history.

Exit codes:
  0 - Compiled (warnings may be present)
  1 - Compilation failed
  2 - Command error (profile not found, unreadable, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Factor, "factor", 1, "global rate multiplier")
	cmd.Flags().Float64Var(&opts.LineSpeed, "line-speed", ir.DefaultLineSpeed, "port line speed in bits/sec")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this history database")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	prof, err := loadProfile(formatter, path, profile.LoadModeCollectAll)
	if err != nil {
		return err
	}
	hash, err := prof.Hash()
	if err != nil {
		return outputCommandError(formatter, profile.ErrCodeGeneric, fmt.Sprintf("hashing profile: %v", err))
	}

	c := compiler.New(
		compiler.WithFactor(opts.Factor),
		compiler.WithLineSpeed(opts.LineSpeed),
		compiler.WithLogger(compilerLogger),
	)
	prog, diags := c.Compile(prof.Streams)

	var runID string
	if opts.DB != "" {
		run, err := recordRun(commandContext(cmd), opts, prof, hash, prog, diags)
		if err != nil {
			return outputCommandError(formatter, ErrCodeHistory, err.Error())
		}
		runID = run.ID
		formatter.VerboseLog("Recorded run %s (seq %d) in %s", run.ID, run.Seq, opts.DB)
	}

	if prog == nil {
		return outputDiagnostics(formatter, hash, diags)
	}

	result := newCompilationResult(hash, prog, diags)
	result.RunID = runID

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeProgramToFile(result, opts.Output); err != nil {
			return outputCommandError(formatter, profile.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, prof, result, opts.Output)
}

// recordRun stores the outcome of a compilation, with peak rates when the
// compilation succeeded.
func recordRun(ctx context.Context, opts *CompileOptions, prof *profile.Profile, hash string, prog *ir.Program, diags compiler.Diagnostics) (store.Run, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return store.Run{}, fmt.Errorf("opening history: %w", err)
	}
	defer st.Close()

	run := store.NewRun(prof.Path, hash, opts.Factor, prog, diags)
	if prog != nil {
		g, err := rategraph.Build(prof.Streams,
			rategraph.WithLineSpeed(opts.LineSpeed),
			rategraph.WithLogger(rategraphLogger),
		)
		if err == nil {
			run.SetPeak(g.MaxPPS(), g.MaxBPS())
		} else {
			logger.Warn("rate graph failed", zap.String("profile", prof.Path), zap.Error(err))
		}
	}
	return st.RecordRun(ctx, run)
}

func newCompilationResult(hash string, prog *ir.Program, diags compiler.Diagnostics) *CompilationResult {
	result := &CompilationResult{
		ProfileHash:   hash,
		Factor:        prog.Factor,
		AllContinuous: prog.AllContinuous,
		Streams:       make([]CompiledStream, len(prog.Entries)),
		Warnings:      diags.Warnings,
	}
	for i, e := range prog.Entries {
		result.Streams[i] = CompiledStream{OriginalID: e.OriginalID, Stream: e.Stream}
	}
	if result.Warnings == nil {
		result.Warnings = []*compiler.Diagnostic{}
	}
	return result
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, prof *profile.Profile, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Encode(CLIResponse{Status: "ok", Data: result, ProfileHash: result.ProfileHash})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s stream(s) from %s\n\n", humanize.Comma(int64(len(result.Streams))), prof.Path)
	fmt.Fprintf(w, "  hash:           %s\n", result.ProfileHash)
	fmt.Fprintf(w, "  factor:         %s\n", humanize.Ftoa(result.Factor))
	fmt.Fprintf(w, "  all continuous: %t\n\n", result.AllContinuous)

	fmt.Fprintln(w, "Streams:")
	for _, s := range result.Streams {
		next := "-"
		if s.Stream.HasNext() {
			next = fmt.Sprint(s.Stream.NextID)
		}
		name := s.Stream.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "  %d (id %d, %s): %s → %s\n",
			s.Stream.ID, s.OriginalID, name, s.Stream.Kind(), next)
	}
	fmt.Fprintln(w)

	writeDiagnostics(w, "Warnings", result.Warnings)

	if result.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", result.RunID)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote program to %s\n", outputFile)
	}

	return nil
}

// outputCommandError outputs a single command error.
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputDiagnostics outputs the findings of a failed compilation.
func outputDiagnostics(formatter *OutputFormatter, hash string, diags compiler.Diagnostics) error {
	if formatter.Format == "json" {
		errs := cliErrors(diags.Errors)
		response := CLIResponse{
			Status:      "error",
			Error:       &errs[0],
			Data:        diags, // Include all findings in data
			ProfileHash: hash,
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(diags.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	writeDiagnostics(formatter.Writer, "Errors", diags.Errors)
	writeDiagnostics(formatter.Writer, "Warnings", diags.Warnings)

	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(diags.Errors)))
}

// writeProgramToFile writes the compiled program as indented JSON.
func writeProgramToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling program: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
