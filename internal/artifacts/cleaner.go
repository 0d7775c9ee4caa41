// Package artifacts removes the local build residue a deployment leaves
// behind once its cloud footprint is verified gone.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/threatdetect-io/mlsweep/internal/engine"
	"github.com/threatdetect-io/mlsweep/internal/logging"
)

// ErrNotClean means the run left cloud resources behind; local state is
// kept so a follow-up run can still plan against it.
var ErrNotClean = errors.New("cloud resources remain, keeping local artifacts")

// DefaultPaths are the build outputs the provisioning flow writes into
// the project directory, relative to its root.
var DefaultPaths = []string{
	".terraform",
	"terraform.tfstate.backup",
	"tfplan",
	filepath.Join("lambda", "function.zip"),
}

// Sweep deletes the known local artifacts under root. It refuses to
// touch anything unless the report says every cloud resource was
// verified absent. Missing paths are skipped; the returned list holds
// only what was actually removed.
func Sweep(root string, report *engine.Report) ([]string, error) {
	if !report.Clean() {
		return nil, ErrNotClean
	}

	var removed []string
	for _, rel := range DefaultPaths {
		path := filepath.Join(root, rel)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to inspect %s: %w", path, err)
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		logging.Debug("removed local artifact", "path", path)
		removed = append(removed, path)
	}
	return removed, nil
}
