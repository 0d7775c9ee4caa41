package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
	"github.com/threatdetect-io/mlsweep/providers/aws"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the resources a teardown would delete, without deleting",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	provider, err := aws.New(ctx, aws.Config{Region: region, Project: project})
	if err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	if err := provider.Preflight(ctx); err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}

	total := 0
	for _, kind := range catalog.KindsInTeardownOrder() {
		ids, err := provider.Discover(ctx, kind.ID)
		if err != nil {
			return fmt.Errorf("discovery failed for %s: %w", kind.ID, err)
		}
		for _, id := range ids {
			fmt.Printf("%-20s %s\n", kind.DisplayName, id)
			total++
		}
	}

	if total == 0 {
		fmt.Printf("No resources matching project %q in %s.\n", project, region)
		return nil
	}
	fmt.Printf("\n%d resource(s) would be deleted by 'mlsweep teardown'.\n", total)
	return nil
}
