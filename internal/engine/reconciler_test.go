package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
	"github.com/threatdetect-io/mlsweep/internal/engine"
	"github.com/threatdetect-io/mlsweep/providers/fake"
)

func testConfig() engine.Config {
	return engine.Config{
		Project:     "threat-detection",
		Retry:       engine.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
		RankCycles:  3,
		SettleDelay: time.Millisecond,
		Parallelism: 2,
	}
}

func firstCall(t *testing.T, calls []fake.Call, op string, kind catalog.Kind, id string) int {
	t.Helper()
	for i, c := range calls {
		if c.Op == op && c.Kind == kind && c.ID == id {
			return i
		}
	}
	t.Fatalf("no %s call for %s/%s in %v", op, kind, id, calls)
	return -1
}

func TestRun_EmptyInventoryIsIdempotent(t *testing.T) {
	a := fake.New()

	for i := 0; i < 2; i++ {
		report, err := engine.New(a, testConfig()).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, engine.StatusDone, report.Status, "run %d", i)
		assert.Empty(t, report.Handles, "run %d", i)
	}
}

func TestRun_SingleResource(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Function, "threat-detection-predict")

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report.Status)
	require.Len(t, report.Handles, 1)
	assert.Equal(t, engine.StateAbsent, report.Handles[0].State)
	assert.False(t, a.Exists(catalog.Function, "threat-detection-predict"))
}

func TestRun_LowerRankClearsBeforeHigherRankDeletes(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Endpoint, "threat-detection-endpoint-1")
	a.Add(catalog.Bucket, "threat-detection-data")

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, engine.StatusDone, report.Status)

	calls := a.Calls()
	epDelete := firstCall(t, calls, "delete", catalog.Endpoint, "threat-detection-endpoint-1")
	epVerify := firstCall(t, calls, "is-absent", catalog.Endpoint, "threat-detection-endpoint-1")
	bucketDelete := firstCall(t, calls, "delete", catalog.Bucket, "threat-detection-data")

	// The bucket delete is only issued after the endpoint was deleted
	// and independently verified absent.
	assert.Less(t, epDelete, bucketDelete)
	assert.Less(t, epVerify, bucketDelete)
}

func TestRun_ConflictThenSuccessThenBucketScenario(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Endpoint, "threat-detection-endpoint-42")
	a.Add(catalog.Bucket, "threat-detection-data")
	a.AddObject("threat-detection-data", "train/train.csv", "validation/validation.csv", "model-output/model.tar.gz")
	a.FailDelete(catalog.Endpoint, "threat-detection-endpoint-42",
		fmt.Errorf("endpoint updating: %w", engine.ErrConflict))

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report.Status)

	// Endpoint: attempt 1 conflicts, attempt 2 succeeds.
	var epDeletes int
	for _, c := range a.CallsFor("delete") {
		if c.Kind == catalog.Endpoint {
			epDeletes++
		}
	}
	assert.Equal(t, 2, epDeletes)

	// Bucket: all three objects removed before the bucket delete.
	assert.Len(t, a.CallsFor("delete-object"), 3)
	assert.False(t, a.Exists(catalog.Bucket, "threat-detection-data"))
}

// vanishing reports NotFound on delete after dropping the resource,
// simulating a resource already removed out-of-band between discovery and
// the delete call.
type vanishing struct {
	*fake.Adapter
}

func (v *vanishing) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	v.Remove(kind, id)
	return fmt.Errorf("delete %s/%s: %w", kind, id, engine.ErrNotFound)
}

func TestRun_DeleteNotFoundIsSuccess(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Model, "threat-detection-model")

	report, err := engine.New(&vanishing{a}, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report.Status)
	require.Len(t, report.Handles, 1)
	assert.Equal(t, engine.StateAbsent, report.Handles[0].State)

	// Exactly one delete call: NotFound is never retried.
	assert.Len(t, a.CallsFor("delete"), 0) // wrapper bypasses the fake's recorder
}

func TestRun_VerificationMismatchRetriesAtRankLevel(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Function, "threat-detection-predict")
	// Delete is acknowledged but has no effect the first time.
	a.FailDelete(catalog.Function, "threat-detection-predict", nil)

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report.Status)

	var fnDeletes int
	for _, c := range a.CallsFor("delete") {
		if c.Kind == catalog.Function {
			fnDeletes++
		}
	}
	assert.GreaterOrEqual(t, fnDeletes, 2, "mismatch must trigger another rank cycle")
}

func TestRun_DegradedRankStillAdvances(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Endpoint, "threat-detection-endpoint-9")
	a.Add(catalog.Bucket, "threat-detection-data")

	// More conflicts than the whole run can spend: 3 attempts per
	// controller call times 3 rank cycles.
	var stuck []error
	for i := 0; i < 9; i++ {
		stuck = append(stuck, fmt.Errorf("endpoint busy: %w", engine.ErrConflict))
	}
	a.FailDelete(catalog.Endpoint, "threat-detection-endpoint-9", stuck...)

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)

	// The rank is accepted degraded so the bucket still gets cleaned,
	// but the run as a whole is failed.
	assert.Equal(t, engine.StatusFailed, report.Status)
	assert.Contains(t, report.DegradedRanks, 0)
	assert.True(t, a.Exists(catalog.Endpoint, "threat-detection-endpoint-9"))
	assert.False(t, a.Exists(catalog.Bucket, "threat-detection-data"))

	remaining := report.Remaining()
	require.Len(t, remaining, 1)
	assert.Equal(t, catalog.Endpoint, remaining[0].Kind)
}

// sticky keeps reporting an identifier from Discover even after it was
// deleted, the way an eventually consistent listing would.
type sticky struct {
	*fake.Adapter
	kind catalog.Kind
	id   string
}

func (s *sticky) Discover(ctx context.Context, kind catalog.Kind) ([]string, error) {
	ids, err := s.Adapter.Discover(ctx, kind)
	if err != nil || kind != s.kind {
		return ids, err
	}
	for _, id := range ids {
		if id == s.id {
			return ids, nil
		}
	}
	return append(ids, s.id), nil
}

func TestRun_ConfirmedAbsentIsNeverReAdded(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Endpoint, "threat-detection-endpoint-a")
	a.Add(catalog.Endpoint, "threat-detection-endpoint-b")
	// endpoint-b needs a second rank cycle, forcing re-discovery while
	// the stale listing still contains endpoint-a.
	a.FailDelete(catalog.Endpoint, "threat-detection-endpoint-b", nil)

	s := &sticky{Adapter: a, kind: catalog.Endpoint, id: "threat-detection-endpoint-a"}
	report, err := engine.New(s, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report.Status)

	// One handle per endpoint, and exactly one delete for endpoint-a:
	// verification is monotonic within a run.
	var aHandles, aDeletes int
	for _, h := range report.Handles {
		if h.ID == "threat-detection-endpoint-a" {
			aHandles++
		}
	}
	for _, c := range a.CallsFor("delete") {
		if c.ID == "threat-detection-endpoint-a" {
			aDeletes++
		}
	}
	assert.Equal(t, 1, aHandles)
	assert.Equal(t, 1, aDeletes)
}

func TestRun_ReappearanceAfterRunIsNextInvocationsProblem(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Endpoint, "threat-detection-endpoint-7")

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, engine.StatusDone, report.Status)

	// The training job recreates the endpoint after the run finished.
	a.Add(catalog.Endpoint, "threat-detection-endpoint-7")

	// A fresh invocation sees it as a brand new handle; no crash, no
	// contradiction.
	report2, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report2.Status)
	require.Len(t, report2.Handles, 1)
	assert.Equal(t, engine.StateAbsent, report2.Handles[0].State)
}

func TestRun_FatalOnOneHandleDoesNotAbortOthers(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Model, "threat-detection-model-1")
	a.Add(catalog.Model, "threat-detection-model-2")
	// Permission denied is fatal for this handle only. Queue enough for
	// every rank cycle so it never succeeds.
	for i := 0; i < 3; i++ {
		a.FailDelete(catalog.Model, "threat-detection-model-1",
			fmt.Errorf("AccessDeniedException: not authorized"))
	}

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, report.Status)
	assert.False(t, a.Exists(catalog.Model, "threat-detection-model-2"))
	assert.True(t, a.Exists(catalog.Model, "threat-detection-model-1"))
}

func TestRun_DeclinedConfirmationDeletesNothing(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Bucket, "threat-detection-data")

	eng := engine.New(a, testConfig(), engine.WithConfirm(
		func(ctx context.Context, summary string) (bool, error) {
			assert.Contains(t, summary, "threat-detection-data")
			return false, nil
		}))

	report, err := eng.Run(context.Background())
	assert.ErrorIs(t, err, engine.ErrDeclined)
	assert.Nil(t, report)
	assert.Empty(t, a.CallsFor("delete"))
	assert.True(t, a.Exists(catalog.Bucket, "threat-detection-data"))
}

func TestRun_CancellationStartsNoNewRank(t *testing.T) {
	a := fake.New()
	a.Add(catalog.Endpoint, "threat-detection-endpoint-1")
	a.Add(catalog.Bucket, "threat-detection-data")

	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(a, testConfig(), engine.WithConfirm(
		func(context.Context, string) (bool, error) {
			// Operator interrupt lands right after confirmation.
			cancel()
			return true, nil
		}))

	report, err := eng.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, engine.StatusFailed, report.Status)
	assert.Empty(t, a.CallsFor("delete"))
	assert.True(t, a.Exists(catalog.Bucket, "threat-detection-data"))
}

func TestRun_EmptyDiscoveryForOneKindIsNotAnError(t *testing.T) {
	a := fake.New()
	a.Add(catalog.LogGroup, "/aws/lambda/threat-detection-predict")

	report, err := engine.New(a, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, report.Status)
	require.Len(t, report.Handles, 1)
}
