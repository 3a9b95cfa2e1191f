package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rcliao/tako/internal/dispatch"
	"github.com/rcliao/tako/internal/engine"
	"github.com/rcliao/tako/internal/menu"
	"github.com/rcliao/tako/internal/store"
	"github.com/rcliao/tako/internal/watch"
)

const openPrefix = ":open "

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read selections from stdin and keep the menu in sync",
		Long: `Read selections from stdin, one per line, and print the enabled menu
entries after each. A line ":open <module-id>" activates that module for
the last selection. Module changes made by other tako processes rebuild
the menu while running.`,
		Run: runRun,
	}

	cmd.Flags().Bool("dry-run", false, "Print URLs instead of opening them (default: open.dry_run)")

	RootCmd.AddCommand(cmd)
}

// printOpener writes URLs to stdout instead of opening them.
type printOpener struct{}

func (printOpener) Open(_ context.Context, url string) error {
	if textOutput() {
		pterm.Success.Println(url)
		return nil
	}
	b, _ := json.Marshal(dispatch.Action{Kind: dispatch.ActionOpenTab, URL: url})
	fmt.Println(string(b))
	return nil
}

type runOutput struct {
	Event     string   `json:"event"`
	Selection string   `json:"selection,omitempty"`
	Module    string   `json:"module,omitempty"`
	Enabled   []string `json:"enabled"`
	Error     string   `json:"error,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var opener dispatch.Opener = dispatch.BrowserOpener{}
	if dryRun(cmd) {
		opener = printOpener{}
	}

	var (
		e    *engine.Engine
		host *menu.MemoryHost
	)
	e, s, host, err := newEngineWith(opener, func(ev engine.Event, err error) {
		reportEvent(e, host, ev, err)
	})
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	w := watch.New(s.Path(), store.KeyModuleList, s, newLogger())
	changes := make(chan watch.Change)
	go func() {
		if err := w.Run(ctx, changes); err != nil {
			fmt.Fprintf(os.Stderr, "error: watch: %v\n", err)
		}
	}()

	events := make(chan engine.Event)
	go feedEvents(ctx, os.Stdin, changes, events)

	if err := e.Run(ctx, events); err != nil {
		exitErr("run", err)
	}
}

// feedEvents turns stdin lines and storage changes into engine events.
// events is closed when stdin ends.
func feedEvents(ctx context.Context, r io.Reader, changes <-chan watch.Change, events chan<- engine.Event) {
	defer close(events)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(ev engine.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(engine.Event{Kind: engine.EventStorageChanged}) {
		return
	}

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if !send(engine.Event{Kind: engine.EventStorageChanged}) {
				return
			}
		case line, ok := <-lines:
			if !ok {
				return
			}
			ev := parseLine(line, last)
			if ev.Kind == engine.EventSelection {
				last = ev.Text
			}
			if !send(ev) {
				return
			}
		}
	}
}

func parseLine(line, lastSelection string) engine.Event {
	if id, ok := strings.CutPrefix(line, openPrefix); ok {
		return engine.Event{Kind: engine.EventActivate, ModuleID: strings.TrimSpace(id), Text: lastSelection}
	}
	return engine.Event{Kind: engine.EventSelection, Text: line}
}

func reportEvent(e *engine.Engine, host *menu.MemoryHost, ev engine.Event, err error) {
	if textOutput() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", ev.Kind, err)
			return
		}
		if ev.Kind != engine.EventActivate {
			printMenu(host)
		}
		return
	}

	out := runOutput{
		Event:     ev.Kind.String(),
		Selection: ev.Text,
		Module:    ev.ModuleID,
		Enabled:   e.Menu().Enabled(),
	}
	if err != nil {
		out.Error = err.Error()
	}
	b, _ := json.Marshal(out)
	fmt.Println(string(b))
}
