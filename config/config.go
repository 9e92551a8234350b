// Package config reads settings from financetree.toml, the environment and
// an optional .env file, and feeds them to kong as flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. FINANCETREE_DATABASE.
	EnvPrefix = "FINANCETREE"
	// FileName is the config file name without extension.
	FileName = "financetree"
)

// Load reads the config file at path, or searches for financetree.toml in
// the working directory and $XDG_CONFIG_HOME/financetree when path is empty.
// A missing file is not an error; environment variables still apply.
func Load(path string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return v, nil
	}

	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, FileName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Resolver resolves kong flags from v. Flag names are used as keys, so
// --tree-file reads tree-file from the file or FINANCETREE_TREE_FILE.
func Resolver(v *viper.Viper) kong.Resolver {
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (interface{}, error) {
		if flag.Name == "help" || flag.Name == "config" {
			return nil, nil
		}
		if !v.IsSet(flag.Name) {
			return nil, nil
		}
		return v.GetString(flag.Name), nil
	})
}

// ConfigFlag returns the --config value from args without parsing the rest,
// so the config file can be loaded before kong runs.
func ConfigFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
