// Package engine drives a discovered set of cloud resources from "exists"
// to "verified absent", rank by rank, tolerating partial failure, transient
// provider errors, and resources recreated out-of-band by the training job.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
	"github.com/threatdetect-io/mlsweep/internal/logging"
)

// DefaultRankCycles bounds how many times a rank's discover+delete+verify
// pass repeats before the rank is accepted degraded.
const DefaultRankCycles = 3

// DefaultParallelism bounds concurrent deletes within a rank. Providers
// rate-limit but tolerate parallel distinct-resource calls.
const DefaultParallelism = 4

// ErrDeclined is returned when the operator does not confirm the run.
var ErrDeclined = errors.New("teardown not confirmed")

// Config carries everything the engine needs. Components never read
// ambient globals; region and naming predicates arrive here explicitly.
type Config struct {
	// Project is the naming-predicate substring present in every
	// provisioned resource name.
	Project     string
	Retry       RetryPolicy
	RankCycles  int
	SettleDelay time.Duration
	Parallelism int
}

func (c Config) withDefaults() Config {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = DefaultRetryPolicy()
	}
	if c.RankCycles <= 0 {
		c.RankCycles = DefaultRankCycles
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
	return c
}

// ConfirmFunc is asked once, after planning and before the first delete.
// Interactive callers block on operator input; automated callers
// auto-confirm.
type ConfirmFunc func(ctx context.Context, summary string) (bool, error)

// Engine owns the working set of handles for one reconciliation run.
// Runs must not execute concurrently against the same deployment; the CLI
// enforces that with a run-lock file.
type Engine struct {
	adapter Adapter
	cfg     Config
	confirm ConfirmFunc

	mu        sync.Mutex
	attempts  []Attempt
	confirmed map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfirm installs the confirmation provider called before the first
// irreversible operation.
func WithConfirm(fn ConfirmFunc) Option {
	return func(e *Engine) { e.confirm = fn }
}

// New builds an engine around an adapter.
func New(adapter Adapter, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		adapter:   adapter,
		cfg:       cfg.withDefaults(),
		confirmed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one full teardown: plan, then per rank delete and verify
// with bounded whole-rank cycles, then report. Lower ranks must be
// verified absent (or accepted degraded) before a higher rank sees its
// first delete call. Cancellation lets in-flight operations finish but
// starts no new rank.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	groups := catalog.RankGroups()

	plan, err := e.planRanks(ctx, groups)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, handles := range plan {
		total += len(handles)
	}
	logging.Info("planning complete", "project", e.cfg.Project, "handles", total, "ranks", len(groups))

	if total > 0 && e.confirm != nil {
		ok, err := e.confirm(ctx, planSummary(plan))
		if err != nil {
			return nil, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return nil, ErrDeclined
		}
	}

	var all []*Handle
	var degraded []int
	for i, group := range groups {
		rank := group[0].Rank
		if ctx.Err() != nil {
			// No new rank after cancellation; untouched handles stay in
			// the report as present.
			all = append(all, plan[i]...)
			continue
		}

		done, leftover := e.reconcileRank(ctx, group, plan[i])
		all = append(all, done...)
		all = append(all, leftover...)
		if len(leftover) > 0 {
			// Blocking forever is worse than a partially clean run:
			// proceed to higher ranks, flag the run at the end.
			degraded = append(degraded, rank)
			logging.Warn("rank accepted degraded", "rank", rank, "remaining", len(leftover))
		}
	}

	report := &Report{
		Status:        StatusDone,
		Attempts:      e.snapshotAttempts(),
		DegradedRanks: degraded,
	}
	for _, h := range all {
		report.Handles = append(report.Handles, *h)
		if h.State != StateAbsent {
			report.Status = StatusFailed
		}
	}
	if err := ctx.Err(); err != nil {
		report.Status = StatusFailed
		return report, err
	}
	return report, nil
}

// planRanks discovers the current handles for every kind, grouped by
// rank. Empty discovery for a kind means nothing to do, not an error.
func (e *Engine) planRanks(ctx context.Context, groups [][]catalog.ResourceKind) ([][]*Handle, error) {
	plan := make([][]*Handle, len(groups))
	for i, group := range groups {
		handles, err := e.discoverRank(ctx, group)
		if err != nil {
			return nil, err
		}
		plan[i] = handles
	}
	return plan, nil
}

func (e *Engine) discoverRank(ctx context.Context, group []catalog.ResourceKind) ([]*Handle, error) {
	var handles []*Handle
	for _, k := range group {
		ids, err := e.adapter.Discover(ctx, k.ID)
		if err != nil {
			return nil, fmt.Errorf("discovery failed for %s: %w", k.ID, err)
		}
		for _, id := range ids {
			h := &Handle{Kind: k.ID, ID: id, State: StatePresent}
			// Verification is monotonic: an identifier confirmed absent
			// in this run is never re-added. A resource recreated
			// out-of-band under a new name shows up as a new handle; an
			// identical name reappearing is left for the next invocation.
			if e.isConfirmed(h.key()) {
				continue
			}
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// reconcileRank runs delete+verify passes over one rank until every
// handle is confirmed absent or the cycle budget is spent. From the
// second cycle on it re-discovers the rank to catch resources that
// reappeared or were only partially matched the first time.
func (e *Engine) reconcileRank(ctx context.Context, group []catalog.ResourceKind, discovered []*Handle) (done, leftover []*Handle) {
	working := discovered
	for cycle := 1; cycle <= e.cfg.RankCycles; cycle++ {
		if cycle > 1 {
			fresh, err := e.discoverRank(ctx, group)
			if err != nil {
				logging.Warn("re-discovery failed, keeping working set", "rank", group[0].Rank, "error", err)
			} else {
				working = mergeHandles(working, fresh)
			}
		}
		if len(working) == 0 {
			break
		}

		logging.Info("deleting rank", "rank", group[0].Rank, "cycle", cycle, "handles", len(working))
		e.teardownAll(ctx, working)

		var still []*Handle
		for _, h := range working {
			if h.State == StateAbsent {
				e.markConfirmed(h.key())
				done = append(done, h)
				continue
			}
			still = append(still, h)
		}
		working = still
		if len(working) == 0 || ctx.Err() != nil {
			break
		}
	}
	return done, working
}

// teardownAll processes a rank's handles through a bounded worker pool.
// Operations against distinct handles run concurrently; each handle's own
// prepare, delete, and verify stay strictly sequential.
func (e *Engine) teardownAll(ctx context.Context, handles []*Handle) {
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Parallelism)
	for _, h := range handles {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			e.teardownHandle(ctx, h)
			return nil
		})
	}
	g.Wait()
}

func (e *Engine) teardownHandle(ctx context.Context, h *Handle) {
	// In-flight provider calls run to completion even if the run is
	// cancelled; aborting a delete mid-flight can strand the resource in
	// a transitional state.
	opCtx := context.WithoutCancel(ctx)

	h.State = StateStopping
	outcome, err := runWithRetry(opCtx, e.cfg.Retry, func(c context.Context) error {
		return e.adapter.PrepareDelete(c, h.Kind, h.ID)
	})
	e.record(h, "prepare", outcome, err)
	if outcome != OutcomeSuccess {
		h.State = StatePresent
		return
	}

	h.State = StateDeleting
	outcome, err = runWithRetry(opCtx, e.cfg.Retry, func(c context.Context) error {
		return e.adapter.Delete(c, h.Kind, h.ID)
	})
	e.record(h, "delete", outcome, err)
	if outcome != OutcomeSuccess {
		h.State = StatePresent
		return
	}

	absent, verr := e.verifyAbsent(opCtx, h.Kind, h.ID)
	switch {
	case verr != nil:
		e.record(h, "verify", OutcomeRetryable, verr)
		h.State = StateUnknown
	case absent:
		e.record(h, "verify", OutcomeSuccess, nil)
		h.State = StateAbsent
	default:
		// The delete call was acknowledged but the resource is still
		// discoverable after the settle delay. Never accepted silently;
		// the rank cycle retries it.
		e.record(h, "verify", OutcomeRetryable,
			fmt.Errorf("%s %q still present after delete", h.Kind, h.ID))
		h.State = StatePresent
	}
}

func (e *Engine) record(h *Handle, op string, outcome Outcome, err error) {
	e.mu.Lock()
	e.attempts = append(e.attempts, Attempt{
		Kind:    h.Kind,
		ID:      h.ID,
		Op:      op,
		Outcome: outcome,
		Err:     err,
		At:      time.Now(),
	})
	e.mu.Unlock()

	if err != nil {
		logging.Warn("operation failed", "op", op, "kind", h.Kind, "id", h.ID, "outcome", outcome, "error", err)
		return
	}
	logging.Debug("operation done", "op", op, "kind", h.Kind, "id", h.ID, "outcome", outcome)
}

func (e *Engine) markConfirmed(key string) {
	e.mu.Lock()
	e.confirmed[key] = true
	e.mu.Unlock()
}

func (e *Engine) isConfirmed(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmed[key]
}

func (e *Engine) snapshotAttempts() []Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Attempt, len(e.attempts))
	copy(out, e.attempts)
	return out
}

// mergeHandles keeps the surviving working-set handles (with their
// states) and appends freshly discovered identifiers not already present.
func mergeHandles(working, fresh []*Handle) []*Handle {
	seen := make(map[string]bool, len(working))
	out := make([]*Handle, 0, len(working))
	for _, h := range working {
		seen[h.key()] = true
		out = append(out, h)
	}
	for _, h := range fresh {
		if !seen[h.key()] {
			out = append(out, h)
		}
	}
	return out
}

func planSummary(plan [][]*Handle) string {
	var b strings.Builder
	total := 0
	for _, handles := range plan {
		for _, h := range handles {
			name := string(h.Kind)
			if k, ok := catalog.Lookup(h.Kind); ok {
				name = k.DisplayName
			}
			fmt.Fprintf(&b, "  %-20s %s\n", name, h.ID)
			total++
		}
	}
	return fmt.Sprintf("%d resource(s) will be permanently deleted:\n%s", total, b.String())
}
