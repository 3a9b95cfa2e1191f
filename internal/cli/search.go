package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search modules by keyword",
		Long:  "Search module names, descriptions and URLs. Every word of the query must appear.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	modulesCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := store.Search(cmd.Context(), s, query)
	if err != nil {
		exitErr("search", err)
	}

	if textOutput() {
		printModules(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(results)
}
