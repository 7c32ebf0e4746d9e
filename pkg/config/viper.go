// Package config initializes the layered sitefix configuration with Viper.
// Lowest to highest precedence: defaults, one config file, SITEFIX_*
// environment variables, command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SITEFIX_SOURCE.
const EnvPrefix = "SITEFIX"

// ConfigName is the base name of the config files searched for.
const ConfigName = "sitefix"

// ConfigExtensions lists the accepted config file formats in search order.
var ConfigExtensions = []string{"json", "yml", "yaml", "toml"}

// ErrMultipleConfigs is returned when more than one config file is found.
var ErrMultipleConfigs = errors.New("multiple config files found")

// Defaults for every configuration key.
var Defaults = map[string]any{
	"source":           "",
	"glob":             "**/*.{html}",
	"root_selector":    "html",
	"ignore_attribute": "data-sitefix-ignore",
	"link_tags":        []string{"a"},
	"verbose":          false,
	"log_format":       "console",
	"resolve_links":    false,
	"skip_schemes":     false,
	"chunk_size":       20000,
	"max_token_bytes":  4 << 20,
	"metrics_file":     "",
}

// InitConfig sets defaults and environment handling on v and reads a config
// file. With explicitPath set that file is read; otherwise dir is searched for
// sitefix.{json,yml,yaml,toml}. Finding no file is not an error; finding more
// than one is. It returns the path of the file read, if any.
func InitConfig(v *viper.Viper, fsys afero.Fs, dir, explicitPath string) (string, error) {
	v.SetFs(fsys)
	for key, val := range Defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path := explicitPath
	if path == "" {
		found, err := findConfig(fsys, dir)
		if err != nil {
			return "", err
		}
		path = found
	}
	if path == "" {
		return "", nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config %s: %w", path, err)
	}
	return path, nil
}

func findConfig(fsys afero.Fs, dir string) (string, error) {
	var found []string
	for _, ext := range ConfigExtensions {
		candidate := filepath.Join(dir, ConfigName+"."+ext)
		ok, err := afero.Exists(fsys, candidate)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if ok {
			found = append(found, candidate)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMultipleConfigs, strings.Join(found, ", "))
	}
}
