package cli

import (
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import modules from JSON or YAML",
		Long:  "Import modules from a file or stdin. Accepts the output of export in either format.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	cmd.Flags().Bool("replace", false, "Discard the stored modules first")

	modulesCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	replace, _ := cmd.Flags().GetBool("replace")

	var (
		data []byte
		err  error
	)
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	// JSON documents are valid YAML.
	var modules []model.Module
	if err := yaml.Unmarshal(data, &modules); err != nil {
		exitErr("parse modules", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := store.Import(cmd.Context(), s, modules, replace)
	if err != nil {
		exitErr("import", err)
	}

	if textOutput() {
		pterm.Success.Printfln("Imported %d modules", res.Imported)
		for _, sk := range res.Skipped {
			pterm.Warning.Printfln("Skipped %s: %s", sk.Name, sk.Reason)
		}
		return
	}
	printJSON(res)
}
