package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a module",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	modulesCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := store.GetModule(cmd.Context(), s, args[0])
	if err != nil {
		exitErr("show", err)
	}

	if textOutput() {
		b, err := yaml.Marshal(m)
		if err != nil {
			exitErr("encode yaml", err)
		}
		fmt.Print(string(b))
		return
	}
	printJSON(m)
}
