package engine

import (
	"context"
	"errors"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
)

// Sentinel errors adapters wrap raw provider failures with so the retry
// controller can classify them without knowing provider call shapes.
var (
	// ErrNotFound means the resource is already gone. Deleting an absent
	// resource is a success, not a failure.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict means the resource is busy, typically mid state
	// transition (endpoint updating, notebook stopping, bucket non-empty).
	ErrConflict = errors.New("resource busy")
	// ErrTransient covers throttling and flaky-network failures.
	ErrTransient = errors.New("transient provider error")
)

// Adapter is the uniform per-kind surface over a cloud provider. One
// adapter serves every kind in the catalog; the engine never issues a
// provider-specific call itself.
type Adapter interface {
	// Discover lists the identifiers of every resource of the given kind
	// that belongs to the deployment, matched by the catalog's naming
	// predicate against everything visible to the current credentials.
	// An empty result is a valid answer, not an error.
	Discover(ctx context.Context, kind catalog.Kind) ([]string, error)

	// PrepareDelete runs the kind-specific step that must complete before
	// delete can succeed: stopping a notebook, emptying a bucket. Kinds
	// with no such step return nil. A step still in progress is reported
	// as ErrConflict so the caller's retry discipline awaits it.
	PrepareDelete(ctx context.Context, kind catalog.Kind, id string) error

	// Delete issues the provider delete call. ErrNotFound is the
	// idempotent no-op case.
	Delete(ctx context.Context, kind catalog.Kind, id string) error

	// IsAbsent is a fresh existence check, never a cached flag and never
	// the delete call's own return code.
	IsAbsent(ctx context.Context, kind catalog.Kind, id string) (bool, error)
}
