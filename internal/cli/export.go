package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export modules",
		Long:  "Export every module, disabled ones included, as JSON or YAML.",
		Run:   runExport,
	}

	cmd.Flags().Bool("yaml", false, "Write YAML instead of JSON")

	modulesCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	asYAML, _ := cmd.Flags().GetBool("yaml")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	modules, err := store.Export(cmd.Context(), s)
	if err != nil {
		exitErr("export", err)
	}

	if asYAML {
		b, err := yaml.Marshal(modules)
		if err != nil {
			exitErr("encode yaml", err)
		}
		fmt.Print(string(b))
		return
	}
	printJSON(modules)
}
