package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/stevedore/archive"
	"github.com/pithecene-io/stevedore/cli/config"
	"github.com/pithecene-io/stevedore/cli/render"
	"github.com/pithecene-io/stevedore/manifest"
)

// BuildResponse is the response for the build command.
type BuildResponse struct {
	AppID       string `json:"app_id"`
	Version     string `json:"version"`
	FileName    string `json:"file_name"`
	ContentHash string `json:"content_hash"`
	Bytes       int64  `json:"bytes"`
}

// BuildCommand returns the build command: archive and fingerprint only,
// no credentials, no network.
func BuildCommand() *cli.Command {
	return &cli.Command{
		Name:   "build",
		Usage:  "Package the project into a tar.gz archive and print its fingerprint",
		Flags:  append(ReadOnlyFlags(), RootFlag, LatestFlag),
		Action: buildAction,
	}
}

func buildAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return err
	}

	root := c.String("root")
	desc, _, err := manifest.Load(root)
	if err != nil {
		return cli.Exit(fmt.Sprintf("manifest: %v", err), exitFailure)
	}

	result, err := archive.Build(root, desc, archive.Options{
		Latest:        c.Bool("latest"),
		DependencyDir: cfg.DependencyDir,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("archive: %v", err), exitFailure)
	}

	return r.Render(BuildResponse{
		AppID:       desc.ID,
		Version:     desc.Version,
		FileName:    result.FileName,
		ContentHash: result.ContentHash,
		Bytes:       result.Bytes,
	})
}
