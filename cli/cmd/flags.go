// Package cmd provides CLI commands for the stevedore binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/stevedore/cli/config"
)

// Shared flags across commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// ConfigFlag points at the tool configuration file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to stevedore.yaml",
		Value:   config.DefaultFileName,
	}

	// RootFlag selects the project root directory.
	RootFlag = &cli.StringFlag{
		Name:  "root",
		Usage: "Project root directory",
		Value: ".",
	}

	// LatestFlag archives under the fixed "latest" alias instead of the
	// descriptor version.
	LatestFlag = &cli.BoolFlag{
		Name:  "latest",
		Usage: "Archive under the 'latest' alias instead of the version",
	}
)

// ReadOnlyFlags returns the shared flags for read-only commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		ConfigFlag,
	}
}
