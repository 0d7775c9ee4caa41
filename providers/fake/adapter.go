// Package fake is an in-memory Adapter with scriptable failures. It backs
// the engine tests and lets teardown scenarios run without credentials.
package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
	"github.com/threatdetect-io/mlsweep/internal/engine"
)

// Call records one adapter operation, for ordering assertions.
type Call struct {
	Op   string
	Kind catalog.Kind
	ID   string
}

// Adapter simulates a provider. Failures are queued per resource and
// consumed one per call, so "fail once with Conflict then succeed" is a
// two-line setup.
type Adapter struct {
	mu          sync.Mutex
	present     map[string]bool
	objects     map[string][]string
	prepareErrs map[string][]error
	deleteErrs  map[string][]error
	calls       []Call
}

// New returns an empty inventory.
func New() *Adapter {
	return &Adapter{
		present:     make(map[string]bool),
		objects:     make(map[string][]string),
		prepareErrs: make(map[string][]error),
		deleteErrs:  make(map[string][]error),
	}
}

func key(kind catalog.Kind, id string) string {
	return fmt.Sprintf("%s/%s", kind, id)
}

// Add places a resource in the inventory. Calling it mid-run simulates
// out-of-band recreation.
func (a *Adapter) Add(kind catalog.Kind, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.present[key(kind, id)] = true
}

// Remove drops a resource from the inventory without going through
// Delete, simulating out-of-band deletion.
func (a *Adapter) Remove(kind catalog.Kind, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.present, key(kind, id))
}

// AddObject puts objects into a bucket; Delete on a non-empty bucket
// fails with a conflict, as the real provider does.
func (a *Adapter) AddObject(bucketID string, keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[bucketID] = append(a.objects[bucketID], keys...)
}

// FailPrepare queues errors returned by successive PrepareDelete calls.
func (a *Adapter) FailPrepare(kind catalog.Kind, id string, errs ...error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prepareErrs[key(kind, id)] = append(a.prepareErrs[key(kind, id)], errs...)
}

// FailDelete queues errors returned by successive Delete calls.
func (a *Adapter) FailDelete(kind catalog.Kind, id string, errs ...error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleteErrs[key(kind, id)] = append(a.deleteErrs[key(kind, id)], errs...)
}

// Exists reports whether the resource is currently in the inventory.
func (a *Adapter) Exists(kind catalog.Kind, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.present[key(kind, id)]
}

// Calls returns a snapshot of every recorded operation in order.
func (a *Adapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

// CallsFor returns recorded operations filtered by op name.
func (a *Adapter) CallsFor(op string) []Call {
	var out []Call
	for _, c := range a.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (a *Adapter) recordLocked(op string, kind catalog.Kind, id string) {
	a.calls = append(a.calls, Call{Op: op, Kind: kind, ID: id})
}

// Discover lists present identifiers of the kind, sorted for determinism.
func (a *Adapter) Discover(ctx context.Context, kind catalog.Kind) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordLocked("discover", kind, "")

	prefix := string(kind) + "/"
	var ids []string
	for k, present := range a.present {
		if present && len(k) > len(prefix) && k[:len(prefix)] == prefix {
			ids = append(ids, k[len(prefix):])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// PrepareDelete pops a scripted error if one is queued; for buckets it
// removes the contained objects, one recorded call each.
func (a *Adapter) PrepareDelete(ctx context.Context, kind catalog.Kind, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordLocked("prepare", kind, id)

	k := key(kind, id)
	if errs := a.prepareErrs[k]; len(errs) > 0 {
		err := errs[0]
		a.prepareErrs[k] = errs[1:]
		return err
	}
	if kind == catalog.Bucket {
		for _, obj := range a.objects[id] {
			a.recordLocked("delete-object", kind, id+"/"+obj)
		}
		a.objects[id] = nil
	}
	return nil
}

// Delete removes the resource unless a scripted error is queued or the
// bucket still holds objects.
func (a *Adapter) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordLocked("delete", kind, id)

	k := key(kind, id)
	if errs := a.deleteErrs[k]; len(errs) > 0 {
		err := errs[0]
		a.deleteErrs[k] = errs[1:]
		return err
	}
	if !a.present[k] {
		return fmt.Errorf("delete %s: %w", k, engine.ErrNotFound)
	}
	if kind == catalog.Bucket && len(a.objects[id]) > 0 {
		return fmt.Errorf("bucket %s not empty: %w", id, engine.ErrConflict)
	}
	delete(a.present, k)
	return nil
}

// IsAbsent is a fresh lookup against the inventory.
func (a *Adapter) IsAbsent(ctx context.Context, kind catalog.Kind, id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordLocked("is-absent", kind, id)
	return !a.present[key(kind, id)], nil
}

var _ engine.Adapter = (*Adapter)(nil)
