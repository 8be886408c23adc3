// Package main provides the stevedore CLI entrypoint.
//
// Usage:
//
//	stevedore <command> [options]
//
// Exit codes for `publish`:
//   - 0: published (registry accepted, all assets synced)
//   - 1: packaging or unexpected failure
//   - 2: rejected by the registry
//   - 3: registry transport failure
//   - 4: partial asset sync (the release IS published)
//   - 5: credential entry aborted
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/stevedore/cli/cmd"
	"github.com/pithecene-io/stevedore/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "stevedore",
		Usage:          "Package and publish app releases to the registry",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.BuildCommand(),
			cmd.PublishCommand(),
			cmd.LogoutCommand(),
			cmd.StatusCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit so that publish
// outcomes map onto distinct process exit codes.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
