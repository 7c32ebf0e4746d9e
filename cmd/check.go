// Package cmd defines and implements the CLI for the sitefix executable.
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCheckCommand runs the check with the App injected by PersistentPreRunE
// and prints the report to the command's output.
func runCheckCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	summary, err := appInstance.Run(cmd.Context(), cmd.OutOrStdout())
	appInstance.GetLogger().Debug("Check command finished",
		zap.Int("checked", summary.Checked),
		zap.Int("failed", summary.Failed),
		zap.Int("issues", summary.Issues),
	)
	return err
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
