package cli

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules",
		Run:   runList,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().Bool("enabled", false, "Only enabled modules")
	cmd.Flags().Bool("ids-only", false, "Only output module ids")

	modulesCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	enabledOnly, _ := cmd.Flags().GetBool("enabled")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var modules []model.Module
	if enabledOnly {
		modules, err = s.ListEnabledModules(cmd.Context())
	} else {
		modules, err = s.ListAllModules(cmd.Context())
	}
	if err != nil {
		exitErr("list", err)
	}

	if category != "" {
		modules = lo.Filter(modules, func(m model.Module, _ int) bool { return m.Category == category })
	}
	store.SortByName(modules)

	if idsOnly {
		for _, m := range modules {
			fmt.Println(m.ID)
		}
		return
	}

	if textOutput() {
		printModules(modules)
		return
	}
	printJSON(modules)
}
