package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/stevedore/cli/config"
	"github.com/pithecene-io/stevedore/credential"
)

// LogoutCommand returns the logout command: removes every stored
// credential under the stevedore namespace.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Remove all stored registry credentials",
		Flags:  ReadOnlyFlags(),
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return err
	}

	store := credential.NewHelperStore(cfg.CredentialHelper)
	removed, err := credential.Clear(store)
	if err != nil {
		return cli.Exit(fmt.Sprintf("logout: %v", err), exitFailure)
	}

	if removed == 0 {
		fmt.Println("no stored credentials")
		return nil
	}
	fmt.Printf("removed %d stored credential(s)\n", removed)
	return nil
}
