package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/stevedore/archive"
	"github.com/pithecene-io/stevedore/cli/config"
	"github.com/pithecene-io/stevedore/cli/render"
	"github.com/pithecene-io/stevedore/credential"
	"github.com/pithecene-io/stevedore/manifest"
)

// StatusResponse is the response for the status command.
// Credentials are reported by key ID only; secrets are never rendered.
type StatusResponse struct {
	Registry      string   `json:"registry"`
	Bucket        string   `json:"bucket"`
	KeyPrefix     string   `json:"key_prefix,omitempty"`
	DependencyDir string   `json:"dependency_dir"`
	StoredKeyIDs  []string `json:"stored_key_ids"`
	AppID         string   `json:"app_id,omitempty"`
	Version       string   `json:"version,omitempty"`
	ArchiveName   string   `json:"archive_name,omitempty"`
}

// StatusCommand returns the status command: a read-only report of the
// resolved config, credential presence, and the would-be archive name.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show resolved configuration and stored credential presence",
		Flags:  append(ReadOnlyFlags(), RootFlag),
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return err
	}

	resp := StatusResponse{
		Registry:      "https://" + cfg.Registry.Host + cfg.Registry.Path,
		Bucket:        cfg.Storage.Bucket,
		KeyPrefix:     cfg.Storage.Prefix,
		DependencyDir: cfg.DependencyDir,
		StoredKeyIDs:  []string{},
	}

	// Credential store may be absent on headless hosts; report that as
	// empty rather than failing a read-only command.
	store := credential.NewHelperStore(cfg.CredentialHelper)
	if stored, err := store.List(); err == nil {
		for _, s := range stored {
			resp.StoredKeyIDs = append(resp.StoredKeyIDs, s.Account)
		}
	}

	// The manifest is optional here: status works outside a project root.
	if desc, _, err := manifest.Load(c.String("root")); err == nil {
		resp.AppID = desc.ID
		resp.Version = desc.Version
		resp.ArchiveName = archive.FileName(desc, archive.Options{Latest: false})
	}

	return r.Render(resp)
}
