package cli

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/pattern"
	"github.com/rcliao/tako/internal/store"
)

type settingsView struct {
	Privacy      *model.PrivacySettings      `json:"privacy"`
	Troubleshoot *model.TroubleshootSettings `json:"troubleshoot"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show privacy and troubleshoot settings",
		Run:   runSettings,
	}

	privacy := &cobra.Command{
		Use:   "privacy",
		Short: "Change the privacy settings applied to red modules",
		Run:   runPrivacy,
	}
	privacy.Flags().String("allow-local-ip", "", "Allow private IPv4 selections on red modules (true/false)")
	privacy.Flags().StringArray("exclude", nil, "Add a pattern that blocks red modules when it matches the selection (repeatable)")
	privacy.Flags().StringArray("unexclude", nil, "Remove an exclusion pattern (repeatable)")
	privacy.Flags().Bool("clear-excludes", false, "Remove every exclusion pattern")

	debug := &cobra.Command{
		Use:       "debug <on|off>",
		Short:     "Turn stored debug logging on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		Run:       runDebug,
	}

	cmd.AddCommand(privacy, debug)
	RootCmd.AddCommand(cmd)
}

func loadSettings(cmd *cobra.Command, s store.Store) settingsView {
	ps, err := s.GetPrivacySettings(cmd.Context())
	if err != nil {
		exitErr("load privacy settings", err)
	}
	ts, err := s.GetTroubleshootSettings(cmd.Context())
	if err != nil {
		exitErr("load troubleshoot settings", err)
	}
	return settingsView{Privacy: ps, Troubleshoot: ts}
}

func printSettings(v settingsView) {
	if !textOutput() {
		printJSON(v)
		return
	}
	rows := pterm.TableData{
		{"Setting", "Value"},
		{"Allow local IP on red", fmt.Sprintf("%t", v.Privacy.AllowLocalIPOnRed)},
		{"Excluded patterns on red", fmt.Sprintf("%d", len(v.Privacy.ExcludedPatterns))},
		{"Debug mode", fmt.Sprintf("%t", v.Troubleshoot.DebugMode)},
	}
	printTable(rows)
	for _, p := range v.Privacy.ExcludedPatterns {
		pterm.Println("  " + p)
	}
}

func runSettings(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printSettings(loadSettings(cmd, s))
}

func runPrivacy(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	excludes, _ := flags.GetStringArray("exclude")
	unexcludes, _ := flags.GetStringArray("unexclude")
	clearAll, _ := flags.GetBool("clear-excludes")

	for _, p := range excludes {
		if _, err := pattern.Compile(p); err != nil {
			exitErr("exclude", err)
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ps, err := s.GetPrivacySettings(cmd.Context())
	if err != nil {
		exitErr("load privacy settings", err)
	}

	if flags.Changed("allow-local-ip") {
		raw, _ := flags.GetString("allow-local-ip")
		allow, err := strconv.ParseBool(raw)
		if err != nil {
			exitErr("allow-local-ip", err)
		}
		ps.AllowLocalIPOnRed = allow
	}
	if clearAll {
		ps.ExcludedPatterns = []string{}
	}
	ps.ExcludedPatterns = lo.Without(ps.ExcludedPatterns, unexcludes...)
	ps.ExcludedPatterns = lo.Uniq(append(ps.ExcludedPatterns, model.CleanLines(excludes)...))

	if err := s.SavePrivacySettings(cmd.Context(), *ps); err != nil {
		exitErr("save privacy settings", err)
	}
	printSettings(loadSettings(cmd, s))
}

func runDebug(cmd *cobra.Command, args []string) {
	var on bool
	switch args[0] {
	case "on":
		on = true
	case "off":
	default:
		exitErr("debug", fmt.Errorf("expected on or off, got %q", args[0]))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.SaveTroubleshootSettings(cmd.Context(), model.TroubleshootSettings{DebugMode: on}); err != nil {
		exitErr("save troubleshoot settings", err)
	}
	printSettings(loadSettings(cmd, s))
}
