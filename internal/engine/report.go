package engine

import (
	"fmt"
	"io"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
)

// Status is the terminal state of a reconciliation run.
type Status string

const (
	// StatusDone means every discovered handle was independently
	// verified absent.
	StatusDone Status = "done"
	// StatusFailed means at least one handle is still present or
	// unknown, including ranks accepted in degraded mode.
	StatusFailed Status = "failed"
)

// Report is the structured result of one run. It always lists every
// handle and its terminal state; the run never claims bare success when
// any handle was not verified absent.
type Report struct {
	Status   Status
	Handles  []Handle
	Attempts []Attempt
	// DegradedRanks lists ranks that did not fully clear within their
	// cycle budget but were passed over so higher ranks could proceed.
	DegradedRanks []int
}

// Clean reports whether every handle reached confirmed-absent.
func (r *Report) Clean() bool {
	return r.Status == StatusDone
}

// Remaining returns the handles not confirmed absent.
func (r *Report) Remaining() []Handle {
	var out []Handle
	for _, h := range r.Handles {
		if h.State != StateAbsent {
			out = append(out, h)
		}
	}
	return out
}

// Render writes one line per handle: kind, identifier, final state.
func (r *Report) Render(w io.Writer) {
	for _, h := range r.Handles {
		name := string(h.Kind)
		if k, ok := catalog.Lookup(h.Kind); ok {
			name = k.DisplayName
		}
		fmt.Fprintf(w, "%-20s %-60s %s\n", name, h.ID, h.State)
	}
	fmt.Fprintf(w, "run status: %s (%d handles, %d not confirmed absent)\n",
		r.Status, len(r.Handles), len(r.Remaining()))
}
