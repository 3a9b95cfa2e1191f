package cli

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/config"
	"github.com/rcliao/tako/internal/dispatch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "open <module-id> [text]",
		Short: "Open a module's URLs for a selection",
		Long:  "Open every URL of the module for the selection, unless the privacy settings block it.",
		Args:  cobra.MinimumNArgs(2),
		Run:   runOpen,
	}

	cmd.Flags().Bool("dry-run", false, "Print the URLs instead of opening them (default: open.dry_run)")

	RootCmd.AddCommand(cmd)
}

// dryRun prefers the command's --dry-run flag over the configured value.
func dryRun(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("dry-run") {
		v, _ := cmd.Flags().GetBool("dry-run")
		return v
	}
	return config.DryRun()
}

func newOpener(cmd *cobra.Command) dispatch.Opener {
	if dryRun(cmd) {
		return &dispatch.RecordingOpener{}
	}
	return dispatch.BrowserOpener{}
}

func runOpen(cmd *cobra.Command, args []string) {
	id := args[0]
	text := strings.Join(args[1:], " ")

	e, s, _, err := newEngine(newOpener(cmd))
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	actions, err := e.Activate(cmd.Context(), id, text)
	if err != nil {
		exitErr("open", err)
	}

	if textOutput() {
		if len(actions) == 0 {
			pterm.Warning.Println("Nothing opened: unknown module or blocked by privacy settings")
			return
		}
		for _, a := range actions {
			pterm.Success.Println(a.URL)
		}
		return
	}
	if actions == nil {
		actions = []dispatch.Action{}
	}
	printJSON(actions)
}
