package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitefix/internal/app"
	"github.com/JakeFAU/sitefix/internal/config"
	"github.com/JakeFAU/sitefix/internal/report"
	pkgconfig "github.com/JakeFAU/sitefix/pkg/config"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
// This allows a fake app to be injected during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	Run(ctx context.Context, w io.Writer) (report.Summary, error)
}

// newApp is the application factory. It's a variable so tests can
// replace it.
var newApp = func(opts config.Options) (App, error) {
	a, err := app.NewApp(opts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// flagKeys maps each command-line flag to the configuration key it overrides.
var flagKeys = map[string]string{
	"source":           "source",
	"glob":             "glob",
	"root-selector":    "root_selector",
	"ignore-attribute": "ignore_attribute",
	"link-tags":        "link_tags",
	"verbose":          "verbose",
	"log-format":       "log_format",
	"resolve-links":    "resolve_links",
	"skip-schemes":     "skip_schemes",
	"chunk-size":       "chunk_size",
	"max-token-bytes":  "max_token_bytes",
	"metrics-file":     "metrics_file",
}

// newRootCmd creates and configures the sitefix command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "sitefix",
		Short: "Find missing and dead links in a built static site.",
		Long: `sitefix scans the HTML files of a built static website and reports
anchors without an href, and anchors pointing at pages that do not exist
anywhere in the site. Files are streamed, never parsed into a full DOM.

Elements carrying the ignore attribute (data-sitefix-ignore by default) are
skipped together with everything inside them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Build and inject the application before RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadOptions(cmd, cfgFile)
			if err != nil {
				return err
			}
			appInstance, err := newApp(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		// Release services once the command finishes.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},

		RunE: runCheckCommand,
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "",
		"config file (default is sitefix.{json,yml,yaml,toml} in the working directory)")
	flags.StringP("source", "s", "", "the location of your built static website")
	flags.String("glob", "", `the file glob sitefix uses to find HTML files (default "**/*.{html}")`)
	flags.String("root-selector", "", `the element sitefix treats as the root of the document (default "html")`)
	flags.String("ignore-attribute", "", `the attribute that excludes an element and its subtree (default "data-sitefix-ignore")`)
	flags.StringSlice("link-tags", nil, "elements whose href is checked (default [a])")
	flags.BoolP("verbose", "v", false, "print debug logging")
	flags.String("log-format", "", `log encoding, "console" or "json" (default "console")`)
	flags.Bool("resolve-links", false, "resolve relative hrefs against their page and ignore query strings")
	flags.Bool("skip-schemes", false, "leave mailto:, tel:, javascript: and data: links unchecked")
	flags.Int("chunk-size", 0, "bytes read from a file at a time (default 20000)")
	flags.Int("max-token-bytes", 0, "largest single tag sitefix accepts, in bytes (default 4194304)")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after the run")

	return cmd
}

// loadOptions layers defaults, config file, environment and explicitly set
// flags, in increasing precedence.
func loadOptions(cmd *cobra.Command, cfgFile string) (config.Options, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Options{}, fmt.Errorf("working directory: %w", err)
	}

	v := viper.New()
	if _, err := pkgconfig.InitConfig(v, afero.NewOsFs(), wd, cfgFile); err != nil {
		return config.Options{}, err
	}
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.Options{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return config.Load(v)
}

// Execute is the main entry point. It exits with status 1 when the run fails
// or finds issues.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, report.ErrIssuesFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
