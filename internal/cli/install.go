package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Seed the default settings and module catalog",
		Long:  "Write the default privacy and troubleshoot settings and the bundled modules. Refuses to overwrite existing modules unless --force is given.",
		Run:   runInstall,
	}

	cmd.Flags().Bool("force", false, "Overwrite existing modules and settings")

	RootCmd.AddCommand(cmd)
}

func runInstall(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	e, s, _, err := newEngine(nil)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if !force {
		_, err := s.ListAllModules(cmd.Context())
		if err == nil {
			exitErr("install", fmt.Errorf("modules already installed in %s (use --force to overwrite)", s.Path()))
		}
		if !errors.Is(err, store.ErrNotFound) {
			exitErr("install", err)
		}
	}

	n, err := e.Install(cmd.Context())
	if err != nil {
		exitErr("install", err)
	}

	if textOutput() {
		pterm.Success.Printfln("Installed %d modules into %s", n, s.Path())
		return
	}
	fmt.Printf(`{"ok":true,"installed":%d}`+"\n", n)
}
