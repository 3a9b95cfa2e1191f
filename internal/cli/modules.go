package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

var modulesCmd = &cobra.Command{
	Use:     "modules",
	Aliases: []string{"mod"},
	Short:   "Manage lookup modules",
}

func init() {
	enable := &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a module",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { runSetEnabled(cmd, args[0], true) },
	}
	disable := &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a module",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { runSetEnabled(cmd, args[0], false) },
	}

	modulesCmd.AddCommand(enable, disable)
	RootCmd.AddCommand(modulesCmd)
}

func runSetEnabled(cmd *cobra.Command, id string, enabled bool) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := store.SetModuleEnabled(cmd.Context(), s, id, enabled)
	if err != nil {
		exitErr("update module", err)
	}

	if textOutput() {
		state := "disabled"
		if m.Enabled {
			state = "enabled"
		}
		pterm.Success.Printfln("%s %s", m.Name, state)
		return
	}
	printJSON(m)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func printModules(modules []model.Module) {
	if len(modules) == 0 {
		pterm.Info.Println("No modules found")
		return
	}

	rows := pterm.TableData{{"ID", "Name", "Category", "PAP", "Enabled"}}
	for _, m := range modules {
		category := m.Category
		if category == "" {
			category = "-"
		}
		rows = append(rows, []string{
			shortID(m.ID),
			m.Name,
			category,
			string(m.PAP),
			fmt.Sprintf("%t", m.Enabled),
		})
	}
	printTable(rows)
}
