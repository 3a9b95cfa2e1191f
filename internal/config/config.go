// Package config reads tako settings from flags, the environment, a
// .env file and $HOME/.config/tako/config.toml, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TAKO"

// Setting keys.
const (
	KeyDB              = "db"
	KeyDebug           = "debug"
	KeyLegacySelection = "menu.legacy_selection"
	KeyDryRun          = "open.dry_run"
	KeyFormat          = "format"
)

// Init loads .env and the config file into viper and sets defaults. A
// missing file is not an error; cfgFile overrides the default location.
func Init(cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("home dir: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "tako"))
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyDB, "")
	viper.SetDefault(KeyDebug, false)
	viper.SetDefault(KeyLegacySelection, false)
	viper.SetDefault(KeyDryRun, false)
	viper.SetDefault(KeyFormat, "json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// DBPath returns flagValue when set, then the configured path, then
// ~/.tako/tako.db.
func DBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := viper.GetString(KeyDB); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tako", "tako.db")
	}
	return filepath.Join(home, ".tako", "tako.db")
}

// Debug reports whether logging is forced on.
func Debug() bool {
	return viper.GetBool(KeyDebug)
}

// LegacySelection reports whether unmatched menu entries keep their state.
func LegacySelection() bool {
	return viper.GetBool(KeyLegacySelection)
}

// DryRun reports whether activations only print their URLs.
func DryRun() bool {
	return viper.GetBool(KeyDryRun)
}

// Format returns the output format, json or text.
func Format() string {
	return viper.GetString(KeyFormat)
}
