package engine

import (
	"fmt"
	"time"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
)

// LifecycleState is the last known state of a discovered resource.
type LifecycleState string

const (
	StatePresent  LifecycleState = "present"
	StateStopping LifecycleState = "stopping"
	StateDeleting LifecycleState = "deleting"
	// StateAbsent means an existence query confirmed the resource gone.
	// A handle never leaves this state within a run.
	StateAbsent  LifecycleState = "confirmed-absent"
	StateUnknown LifecycleState = "unknown"
)

// Handle is one concrete resource instance discovered at runtime. Handles
// are owned and mutated only by the engine.
type Handle struct {
	Kind  catalog.Kind
	ID    string
	State LifecycleState
}

func (h *Handle) key() string {
	return fmt.Sprintf("%s/%s", h.Kind, h.ID)
}

// Outcome classifies the result of one operation attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable-failure"
	OutcomeFatal     Outcome = "fatal-failure"
)

// Attempt records one operation against one handle, for the final report
// and for deciding whether a rank cycle must repeat.
type Attempt struct {
	Kind    catalog.Kind
	ID      string
	Op      string
	Outcome Outcome
	Err     error
	At      time.Time
}
