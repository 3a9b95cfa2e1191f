package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := store.CollectStats(cmd.Context(), s, getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if textOutput() {
		pterm.Info.Printfln("%s: %d modules (%d enabled, %d red, %d green)",
			stats.DBPath, stats.TotalModules, stats.EnabledModules, stats.RedModules, stats.GreenModules)
		rows := pterm.TableData{{"Category", "Modules", "Enabled"}}
		for _, c := range stats.Categories {
			name := c.Category
			if name == "" {
				name = "-"
			}
			rows = append(rows, []string{name, fmt.Sprint(c.Count), fmt.Sprint(c.Enabled)})
		}
		printTable(rows)
		return
	}
	printJSON(stats)
}
