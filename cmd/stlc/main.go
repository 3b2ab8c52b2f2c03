// Command stlc compiles traffic generator stream tables.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/stlc/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Commands print their own ExitErrors
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
