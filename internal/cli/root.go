// Package cli implements the tako CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rcliao/tako/internal/config"
	"github.com/rcliao/tako/internal/dispatch"
	"github.com/rcliao/tako/internal/engine"
	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/menu"
	"github.com/rcliao/tako/internal/store"
)

var (
	cfgFile    string
	dbPath     string
	formatFlag string
	debugFlag  bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "tako",
	Short: "Selection lookup menu for threat intelligence modules",
	Long: `tako matches selected text against configurable lookup modules and
opens the matching modules' URLs, subject to per-module privacy rules.
SQLite-backed, single binary.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: $HOME/.config/tako/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $TAKO_DB or ~/.tako/tako.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log diagnostics regardless of the stored debug setting")

	viper.BindPFlag(config.KeyFormat, RootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag(config.KeyDebug, RootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(cfgFile); err != nil {
		exitErr("config", err)
	}
}

func getDBPath() string {
	return config.DBPath(dbPath)
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func newLogger() *logging.Logger {
	log := logging.Stderr()
	log.Force(config.Debug())
	return log
}

// newEngine opens the store and builds an engine whose menu lives in
// memory. The returned store must be closed by the caller.
func newEngine(opener dispatch.Opener) (*engine.Engine, *store.SQLiteStore, *menu.MemoryHost, error) {
	return newEngineWith(opener, nil)
}

func newEngineWith(opener dispatch.Opener, after func(engine.Event, error)) (*engine.Engine, *store.SQLiteStore, *menu.MemoryHost, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	host := menu.NewMemoryHost()
	e := engine.New(s, engine.Config{
		Host:            host,
		Opener:          opener,
		Logger:          newLogger(),
		LegacySelection: config.LegacySelection(),
		AfterEvent:      after,
	})
	return e, s, host, nil
}

func textOutput() bool {
	return config.Format() == "text"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func printTable(rows pterm.TableData) {
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		exitErr("render table", err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
