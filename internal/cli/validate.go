package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/profile"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	LineSpeed float64
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Streams  int                    `json:"streams"`
	Errors   []*compiler.Diagnostic `json:"errors,omitempty"`
	Warnings []*compiler.Diagnostic `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <profile>",
		Short: "Validate a profile without emitting a program",
		Long: `Validate a stream profile without emitting a program.

Runs field checks, builds the dependency graph and checks that every
enabled stream is reachable from a self-start stream. Faster than compile
for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.LineSpeed, "line-speed", ir.DefaultLineSpeed, "port line speed in bits/sec")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Fail fast: the first broken declaration is enough feedback
	prof, err := loadProfile(formatter, path, profile.LoadModeFailFast)
	if err != nil {
		return err
	}

	c := compiler.New(
		compiler.WithLineSpeed(opts.LineSpeed),
		compiler.WithLogger(compilerLogger),
	)
	g, diags := c.Check(prof.Streams)

	result := ValidationResult{
		Valid:    g != nil,
		Errors:   diags.Errors,
		Warnings: diags.Warnings,
	}
	if g != nil {
		result.Streams = g.Len()
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs a successful validation.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Profile is valid (%d stream(s))\n", result.Streams)
	if len(result.Warnings) > 0 {
		fmt.Fprintln(formatter.Writer)
		writeDiagnostics(formatter.Writer, "Warnings", result.Warnings)
	}
	return nil
}

// outputValidationErrors outputs validation findings.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		errs := cliErrors(result.Errors)
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &errs[0],
			Data:   result,
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	writeDiagnostics(formatter.Writer, "Errors", result.Errors)
	writeDiagnostics(formatter.Writer, "Warnings", result.Warnings)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
