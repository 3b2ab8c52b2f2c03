package cli

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/stlc/internal/profile"
)

// ErrCodeHistory is reported when the history database cannot be used.
const ErrCodeHistory = "E010"

// loadProfile loads a profile, reporting load failures as command errors.
func loadProfile(f *OutputFormatter, path string, mode profile.LoadMode) (*profile.Profile, error) {
	prof, errs := profile.Load(path, mode)
	if len(errs) > 0 {
		return nil, outputLoadErrors(f, errs)
	}

	f.VerboseLog("Loaded %d stream(s) from %d %s file(s) in %s", len(prof.Streams), prof.FileCount, prof.Format, path)
	logger.Debug("profile loaded",
		zap.String("path", path),
		zap.String("format", string(prof.Format)),
		zap.Int("streams", len(prof.Streams)),
	)
	return prof, nil
}

// outputLoadErrors outputs profile load errors.
func outputLoadErrors(f *OutputFormatter, errs []error) error {
	if len(errs) == 1 {
		code, message := profile.FirstError(errs)
		_ = f.Error(code, message, nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
	}

	if f.Format == "json" {
		cliErrs := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := profile.FirstError([]error{err})
			cliErrs[i] = CLIError{Code: code, Message: message}
		}
		if err := f.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrs[0],
			Data:   cliErrs, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("loading profile failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Loading profile failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		var loadErr *profile.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		code, message := profile.FirstError([]error{err})
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("loading profile failed with %d error(s)", len(errs)))
}
