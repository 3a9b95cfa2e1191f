package cli

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/menu"
	"github.com/rcliao/tako/internal/model"
)

type selectResult struct {
	Selection string   `json:"selection"`
	Matched   []string `json:"matched"`
	Enabled   []string `json:"enabled"`
}

func init() {
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Build the selection menu from the enabled modules and print it",
		Run:   runMenu,
	}
	menuCmd.Flags().StringP("selection", "s", "", "Apply this selection before printing")

	selectCmd := &cobra.Command{
		Use:   "select [text]",
		Short: "Match a selection against the enabled modules",
		Long:  "Match a selection against the enabled modules and report which menu entries it enables, after the privacy settings are applied.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSelect,
	}

	RootCmd.AddCommand(menuCmd, selectCmd)
}

func runMenu(cmd *cobra.Command, args []string) {
	selection, _ := cmd.Flags().GetString("selection")

	e, s, host, err := newEngine(nil)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := e.StorageChanged(cmd.Context()); err != nil {
		exitErr("build menu", err)
	}
	if selection != "" {
		if _, err := e.Select(cmd.Context(), selection); err != nil {
			exitErr("select", err)
		}
	}

	if textOutput() {
		printMenu(host)
		return
	}
	printJSON(e.Menu().Items)
}

func runSelect(cmd *cobra.Command, args []string) {
	text := strings.Join(args, " ")

	e, s, host, err := newEngine(nil)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := e.StorageChanged(cmd.Context()); err != nil {
		exitErr("build menu", err)
	}
	matched, err := e.Select(cmd.Context(), text)
	if err != nil {
		exitErr("select", err)
	}

	if textOutput() {
		if len(matched) == 0 {
			pterm.Info.Println("No module matches the selection")
		}
		printMenu(host)
		return
	}
	printJSON(newSelectResult(text, matched, e.Menu()))
}

func newSelectResult(text string, matched []model.Module, snap menu.Snapshot) selectResult {
	return selectResult{
		Selection: text,
		Matched:   lo.Map(matched, func(m model.Module, _ int) string { return m.ID }),
		Enabled:   snap.Enabled(),
	}
}

func printMenu(host *menu.MemoryHost) {
	out, err := menu.Render(host.Entries())
	if err != nil {
		exitErr("render menu", err)
	}
	fmt.Print(out)
}
