package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granson-io/granson/internal/history"
	"github.com/granson-io/granson/internal/metrics"
	"github.com/granson-io/granson/internal/store"
	"github.com/granson-io/granson/rotation"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type captureRecorder struct {
	runs []history.Run
	err  error
}

func (r *captureRecorder) Record(_ context.Context, run history.Run) error {
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

var testNaming = store.Naming{Prefix: "db-", Layout: "20060102T150405", Suffix: ".tar.gz"}

// seedDaily populates the mock with one backup per day over the given span,
// newest last, and returns the mock.
func seedDaily(t *testing.T, days int, last time.Time) *store.Mock {
	t.Helper()
	mock := store.NewMock(testNaming)
	for i := days - 1; i >= 0; i-- {
		mock.Add(last.AddDate(0, 0, -i))
	}
	return mock
}

func TestRunOnceEnforcesPolicy(t *testing.T) {
	now := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock := seedDaily(t, 60, now)
	recorder := &captureRecorder{}

	sweeper, err := New(Options{
		Store:   mock,
		Backend: "mock",
		History: recorder,
		Policy: rotation.Policy{
			Days:         7,
			Weeks:        4,
			FirstWeekday: rotation.Saturday,
			Clock:        fixedClock{now},
		},
	})
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)

	// 7 daily representatives plus 4 weekly ones; 12-25 through 12-31 are
	// both day buckets and contain the 12-25 week anchor.
	wantKept := []string{
		"db-19991204T000000.tar.gz",
		"db-19991211T000000.tar.gz",
		"db-19991218T000000.tar.gz",
		"db-19991225T000000.tar.gz",
		"db-19991226T000000.tar.gz",
		"db-19991227T000000.tar.gz",
		"db-19991228T000000.tar.gz",
		"db-19991229T000000.tar.gz",
		"db-19991230T000000.tar.gz",
		"db-19991231T000000.tar.gz",
	}
	assert.Equal(t, wantKept, mock.Keys())

	assert.Equal(t, 60, result.Scanned)
	assert.Equal(t, 10, result.Kept)
	assert.Equal(t, 50, result.Deleted)
	assert.Equal(t, 0, result.Errors)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, result.RunID, recorder.runs[0].RunID)
	assert.Equal(t, "mock", recorder.runs[0].Backend)
	assert.Equal(t, 50, recorder.runs[0].Deleted)
}

func TestRunOnceDryRunDeletesNothing(t *testing.T) {
	now := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock := seedDaily(t, 30, now)

	sweeper, err := New(Options{
		Store:  mock,
		DryRun: true,
		Policy: rotation.Policy{Days: 7, Clock: fixedClock{now}},
	})
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 23, result.Deleted, "dry run still reports what it would delete")
	assert.Empty(t, mock.Deleted())
	assert.Len(t, mock.Keys(), 30)
}

func TestRunOnceSkipsForeignKeys(t *testing.T) {
	now := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock := seedDaily(t, 10, now)
	mock.AddKey("db-manual-snapshot.tar.gz", 1)
	mock.AddKey("README", 1)

	sweeper, err := New(Options{
		Store:  mock,
		Policy: rotation.Policy{Days: 3, Clock: fixedClock{now}},
	})
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, result.Scanned)
	assert.Equal(t, 2, result.Skipped)
	assert.Contains(t, mock.Keys(), "db-manual-snapshot.tar.gz")
	assert.Contains(t, mock.Keys(), "README")
}

func TestRunOnceCountsDeleteErrors(t *testing.T) {
	now := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock := seedDaily(t, 10, now)
	mock.DeleteErr = errors.New("permission denied")
	recorder := &captureRecorder{}

	reg := prometheus.NewRegistry()
	m := metrics.NewSweepMetricsWithRegistry(reg)

	sweeper, err := New(Options{
		Store:   mock,
		History: recorder,
		Metrics: m,
		Policy:  rotation.Policy{Days: 3, Clock: fixedClock{now}},
	})
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err, "delete failures do not fail the run")

	assert.Equal(t, 7, result.Errors)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.DeleteErrorsTotal))
	require.Len(t, recorder.runs, 1)
	assert.Equal(t, 7, recorder.runs[0].Errors)
}

func TestRunOnceListFailure(t *testing.T) {
	mock := store.NewMock(testNaming)
	mock.ListErr = errors.New("bucket gone")

	sweeper, err := New(Options{Store: mock, Policy: rotation.Policy{Days: 1}})
	require.NoError(t, err)

	_, err = sweeper.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunOnceRejectsBadPolicy(t *testing.T) {
	mock := store.NewMock(testNaming)
	mock.Add(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))

	sweeper, err := New(Options{Store: mock, Policy: rotation.Policy{Days: -1}})
	require.NoError(t, err)

	_, err = sweeper.RunOnce(context.Background())
	assert.ErrorIs(t, err, rotation.ErrNegativeCount)
	assert.Len(t, mock.Keys(), 1, "nothing deleted under a rejected policy")
}

func TestSetPolicyAppliesToNextRun(t *testing.T) {
	now := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock := seedDaily(t, 10, now)

	sweeper, err := New(Options{
		Store:  mock,
		DryRun: true,
		Policy: rotation.Policy{Days: 3, Clock: fixedClock{now}},
	})
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Deleted)

	sweeper.SetPolicy(rotation.Policy{Days: 5, Clock: fixedClock{now}})
	result, err = sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Deleted)
}

func TestNewValidatesSchedule(t *testing.T) {
	mock := store.NewMock(testNaming)

	_, err := New(Options{Store: mock, Schedule: "not a schedule"})
	assert.Error(t, err)

	_, err = New(Options{Store: mock, Schedule: "0 3 * * *"})
	assert.NoError(t, err)

	_, err = New(Options{})
	assert.Error(t, err, "store is required")
}

func TestStartStop(t *testing.T) {
	now := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	mock := seedDaily(t, 3, now)

	sweeper, err := New(Options{
		Store:    mock,
		Interval: time.Hour,
		Policy:   rotation.Policy{Days: 1, Clock: fixedClock{now}},
	})
	require.NoError(t, err)

	sweeper.Start()
	sweeper.Start() // second Start is a no-op
	sweeper.Stop()
	sweeper.Stop() // second Stop is a no-op
}
