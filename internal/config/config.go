// Package config turns the layered Viper settings into validated run options.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/JakeFAU/sitefix/internal/logging"
	"github.com/JakeFAU/sitefix/internal/site"
	"github.com/JakeFAU/sitefix/internal/tracker"
)

// Options captures every knob of a sitefix run.
type Options struct {
	Source          string   `mapstructure:"source"`
	Glob            string   `mapstructure:"glob"`
	RootSelector    string   `mapstructure:"root_selector"`
	IgnoreAttribute string   `mapstructure:"ignore_attribute"`
	LinkTags        []string `mapstructure:"link_tags"`
	Verbose         bool     `mapstructure:"verbose"`
	LogFormat       string   `mapstructure:"log_format"`
	ResolveLinks    bool     `mapstructure:"resolve_links"`
	SkipSchemes     bool     `mapstructure:"skip_schemes"`
	ChunkSize       int      `mapstructure:"chunk_size"`
	MaxTokenBytes   int      `mapstructure:"max_token_bytes"`
	MetricsFile     string   `mapstructure:"metrics_file"`
}

// ErrMissingSource is returned when no source directory was configured.
var ErrMissingSource = errors.New(
	"required option source not supplied; sitefix needs to know the root of your built static site")

// Load decodes v into Options and validates them.
func Load(v *viper.Viper) (Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("unmarshal config: %w", err)
	}
	opts.normalize()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (o *Options) normalize() {
	o.Source = strings.TrimSpace(o.Source)
	o.RootSelector = strings.TrimSpace(o.RootSelector)
	o.IgnoreAttribute = strings.TrimSpace(o.IgnoreAttribute)
	o.LogFormat = strings.ToLower(strings.TrimSpace(o.LogFormat))
	tags := make([]string, 0, len(o.LinkTags))
	for _, t := range o.LinkTags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	o.LinkTags = tags
}

// Validate enforces required values and checks that the glob and root
// selector compile.
func (o Options) Validate() error {
	if o.Source == "" {
		return ErrMissingSource
	}
	if _, err := site.CompileGlob(o.Glob); err != nil {
		return fmt.Errorf("glob %q did not parse as a valid glob: %w", o.Glob, err)
	}
	if _, err := tracker.CompileSelector(o.RootSelector); err != nil {
		return fmt.Errorf("root_selector: %w", err)
	}
	if o.IgnoreAttribute == "" {
		return fmt.Errorf("ignore_attribute must not be empty")
	}
	if len(o.LinkTags) == 0 {
		return fmt.Errorf("link_tags must name at least one element")
	}
	if _, err := logging.ParseFormat(o.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be > 0")
	}
	if o.MaxTokenBytes <= 0 {
		return fmt.Errorf("max_token_bytes must be > 0")
	}
	return nil
}
