package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/threatdetect-io/mlsweep/internal/logging"
)

var (
	logLevel string
	region   string
	project  string
)

var rootCmd = &cobra.Command{
	Use:   "mlsweep",
	Short: "Teardown tool for the threat-detection ML pipeline",
	Long: `Mlsweep reconciles the cloud footprint of a threat-detection deployment
down to nothing.

It discovers every resource whose name carries the project tag, deletes
them in dependency order (serving endpoints first, storage last), and
independently verifies each one is gone before reporting success.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so an interrupt stops
// new work while in-flight deletions finish.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log verbosity (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "us-east-1", "AWS region of the deployment")
	rootCmd.PersistentFlags().StringVar(&project, "project", "threat-detection", "Project name substring that marks owned resources")

	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}
