package cli

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

func moduleFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("name", "n", "", "Module name")
	cmd.Flags().StringP("category", "c", "", "Category; modules sharing one are grouped in the menu")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().StringArrayP("pattern", "p", nil, "Regex pattern the selection must match (repeatable)")
	cmd.Flags().StringArrayP("url", "u", nil, "URL template, {SELECTION_TEXT_AREA} is replaced by the selection (repeatable)")
	cmd.Flags().String("pap", string(model.PAPRed), "Sensitivity: red or green")
}

func init() {
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a module",
		Run:   runAdd,
	}
	moduleFlags(add)
	add.Flags().Bool("disabled", false, "Add the module disabled")
	add.MarkFlagRequired("name")

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a module",
		Long:  "Edit a module. Only the given flags change; --pattern and --url replace the whole list.",
		Args:  cobra.ExactArgs(1),
		Run:   runEdit,
	}
	moduleFlags(edit)

	modulesCmd.AddCommand(add, edit)
}

func runAdd(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")
	patterns, _ := cmd.Flags().GetStringArray("pattern")
	urls, _ := cmd.Flags().GetStringArray("url")
	pap, _ := cmd.Flags().GetString("pap")
	disabled, _ := cmd.Flags().GetBool("disabled")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := store.AddModule(cmd.Context(), s, model.Module{
		Name:          name,
		Category:      category,
		Description:   description,
		RegexPatterns: patterns,
		URLs:          urls,
		PAP:           model.Sensitivity(pap),
		Enabled:       !disabled,
	})
	if err != nil {
		exitErr("add", err)
	}

	if textOutput() {
		pterm.Success.Printfln("Added %s (%s)", m.Name, m.ID)
		return
	}
	printJSON(m)
}

func runEdit(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := store.UpdateModule(cmd.Context(), s, args[0], func(m *model.Module) {
		if flags.Changed("name") {
			m.Name, _ = flags.GetString("name")
		}
		if flags.Changed("category") {
			m.Category, _ = flags.GetString("category")
		}
		if flags.Changed("description") {
			m.Description, _ = flags.GetString("description")
		}
		if flags.Changed("pattern") {
			m.RegexPatterns, _ = flags.GetStringArray("pattern")
		}
		if flags.Changed("url") {
			m.URLs, _ = flags.GetStringArray("url")
		}
		if flags.Changed("pap") {
			pap, _ := flags.GetString("pap")
			m.PAP = model.Sensitivity(pap)
		}
	})
	if err != nil {
		exitErr("edit", err)
	}

	if textOutput() {
		pterm.Success.Printfln("Updated %s", m.Name)
		return
	}
	printJSON(m)
}
