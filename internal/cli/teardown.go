package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/threatdetect-io/mlsweep/internal/artifacts"
	"github.com/threatdetect-io/mlsweep/internal/engine"
	"github.com/threatdetect-io/mlsweep/providers/aws"
)

var (
	teardownAutoApprove   bool
	teardownBestEffort    bool
	teardownKeepArtifacts bool
	teardownMaxAttempts   int
	teardownRankCycles    int
	teardownParallelism   int
	teardownRetryDelay    time.Duration
	teardownSettleDelay   time.Duration
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Delete every resource of the deployment and verify it is gone",
	Long: `Discovers all cloud resources belonging to the project, deletes them in
dependency order, and verifies each deletion against a fresh provider
query. Local build artifacts are removed only after every cloud
resource is confirmed absent.`,
	RunE: runTeardown,
}

func init() {
	teardownCmd.Flags().BoolVar(&teardownAutoApprove, "auto-approve", false, "Skip interactive approval before deleting")
	teardownCmd.Flags().BoolVar(&teardownBestEffort, "best-effort", false, "Exit zero even when some resources could not be removed")
	teardownCmd.Flags().BoolVar(&teardownKeepArtifacts, "keep-artifacts", false, "Leave local build artifacts in place")
	teardownCmd.Flags().IntVar(&teardownMaxAttempts, "max-attempts", engine.DefaultMaxAttempts, "Retry budget per operation")
	teardownCmd.Flags().IntVar(&teardownRankCycles, "rank-cycles", engine.DefaultRankCycles, "Delete+verify passes per dependency rank")
	teardownCmd.Flags().IntVar(&teardownParallelism, "parallelism", engine.DefaultParallelism, "Concurrent deletions within a rank")
	teardownCmd.Flags().DurationVar(&teardownRetryDelay, "retry-delay", engine.DefaultRetryDelay, "Pause between retries of a failed operation")
	teardownCmd.Flags().DurationVar(&teardownSettleDelay, "settle-delay", engine.DefaultSettleDelay, "Wait before the second absence check")
}

func runTeardown(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	lock := newRunLock(runLockPath)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	provider, err := aws.New(ctx, aws.Config{Region: region, Project: project})
	if err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	if err := provider.Preflight(ctx); err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}

	eng := engine.New(provider, engine.Config{
		Project: project,
		Retry: engine.RetryPolicy{
			MaxAttempts: teardownMaxAttempts,
			Delay:       teardownRetryDelay,
		},
		RankCycles:  teardownRankCycles,
		SettleDelay: teardownSettleDelay,
		Parallelism: teardownParallelism,
	}, engine.WithConfirm(confirmTeardown))

	report, runErr := eng.Run(ctx)
	if errors.Is(runErr, engine.ErrDeclined) {
		fmt.Println("Teardown cancelled.")
		return nil
	}
	if report == nil {
		return runErr
	}

	fmt.Println()
	report.Render(os.Stdout)

	if report.Clean() && !teardownKeepArtifacts {
		removed, err := artifacts.Sweep(".", report)
		if err != nil {
			return err
		}
		for _, path := range removed {
			fmt.Printf("removed local artifact %s\n", path)
		}
	}

	if report.Clean() {
		fmt.Println("\nTeardown complete. All resources verified absent.")
		return nil
	}

	if teardownBestEffort {
		fmt.Printf("\nTeardown incomplete: %d resource(s) not confirmed absent (best-effort mode).\n",
			len(report.Remaining()))
		return nil
	}
	return &ExitCodeError{
		Code: ExitIncomplete,
		Err:  fmt.Errorf("%d resource(s) not confirmed absent", len(report.Remaining())),
	}
}

// confirmTeardown blocks on operator input unless --auto-approve was
// given.
func confirmTeardown(ctx context.Context, summary string) (bool, error) {
	fmt.Println(summary)
	if teardownAutoApprove {
		return true, nil
	}
	fmt.Print("Do you want to permanently delete these resources? (y/n): ")
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "yes", nil
}
