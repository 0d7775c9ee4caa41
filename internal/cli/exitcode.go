package cli

// Exit codes reported to the calling automation. Zero is reserved for a
// fully verified clean run.
const (
	// ExitIncomplete means the run finished but at least one resource
	// was not confirmed absent.
	ExitIncomplete = 1
	// ExitUsage covers bad invocations and credential failures caught
	// before any deletion.
	ExitUsage = 2
)

// ExitCodeError carries a process exit code alongside the cause.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string { return e.Err.Error() }

func (e *ExitCodeError) Unwrap() error { return e.Err }
