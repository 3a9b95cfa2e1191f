package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a module",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	modulesCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := store.DeleteModule(cmd.Context(), s, args[0]); err != nil {
		exitErr("rm", err)
	}

	if textOutput() {
		pterm.Success.Printfln("Module %s deleted", args[0])
		return
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}
