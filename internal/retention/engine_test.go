package retention

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/storage"
	"vaultwarden-retention/internal/storage/storagetest"
)

// dailyObjects returns one listed object per day at 02:00 local time
func dailyObjects(first time.Time, days int) []storage.Object {
	var out []storage.Object
	for i := 0; i < days; i++ {
		d := first.AddDate(0, 0, i)
		name := fmt.Sprintf("vaultwarden-%s-020000.tar.gz", d.Format("20060102"))
		out = append(out, storage.Object{Name: name, Path: name, Size: 1000})
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := NewEngine(storagetest.NewMemoryStore(), Options{}, nil)

	assert.Equal(t, DefaultPrefix, engine.options.Prefix)
	assert.Equal(t, DefaultTimeout, engine.options.Timeout)
	assert.Equal(t, ForeverPolicy{}, engine.options.Policy)
	assert.NotNil(t, engine.options.Now)
}

func TestEngine_RunSmart(t *testing.T) {
	objects := dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 10)
	objects = append(objects,
		storage.Object{Name: "random.tar.gz", Path: "random.tar.gz"},
		storage.Object{Name: "vaultwarden-manual.zip", Path: "vaultwarden-manual.zip"},
	)
	store := storagetest.NewMemoryStore(objects...)
	logger, buf := bufferLogger(t)

	engine := NewEngine(store, Options{
		Policy: NewSmartPolicy(),
		Now:    fixedClock(time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local)),
	}, logger)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, ModeSmart, result.Mode)
	assert.Equal(t, 12, result.ObjectsListed)
	assert.Equal(t, 10, result.ArtifactsProcessed)
	assert.Equal(t, 7, result.ArtifactsKept)
	assert.Equal(t, 3, result.ArtifactsDeleted)
	assert.Equal(t, 1, result.SkippedUndated)
	assert.Equal(t, int64(3000), result.BytesReclaimed)

	require.Len(t, store.DeleteCalls, 1)
	assert.Equal(t, []string{
		"vaultwarden-20240103-020000.tar.gz",
		"vaultwarden-20240102-020000.tar.gz",
		"vaultwarden-20240101-020000.tar.gz",
	}, store.DeleteCalls[0])

	// Undated and unrelated files are untouched
	assert.Contains(t, store.Paths(), "random.tar.gz")
	assert.Contains(t, store.Paths(), "vaultwarden-manual.zip")

	out := buf.String()
	assert.Contains(t, out, "Mode: smart | Total Files: 10")
	assert.Contains(t, out, "Strategy: Smart (GFS)")
	assert.Contains(t, out, "run_id="+result.RunID)
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	store := storagetest.NewMemoryStore(dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 40)...)
	now := fixedClock(time.Date(2024, 2, 9, 12, 0, 0, 0, time.Local))

	for _, policy := range allPolicies() {
		engine := NewEngine(store, Options{Policy: policy, Now: now}, logging.NewNopLogger())

		_, err := engine.Run(context.Background())
		require.NoError(t, err)
		calls := len(store.DeleteCalls)

		second, err := engine.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, second.ArtifactsDeleted, policy.Describe())
		assert.Len(t, store.DeleteCalls, calls, policy.Describe())
	}
}

func TestEngine_RunEmptyListing(t *testing.T) {
	store := &storagetest.MockStore{}
	store.On("List", mock.Anything).Return([]storage.Object{}, nil)
	logger, buf := bufferLogger(t)

	result, err := NewEngine(store, Options{Policy: NewCountPolicy(1)}, logger).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.ArtifactsProcessed)
	assert.Contains(t, buf.String(), "Skipping retention check (no files found).")
	store.AssertNotCalled(t, "BatchDelete", mock.Anything, mock.Anything)
}

func TestEngine_RunListingFailure(t *testing.T) {
	store := &storagetest.MockStore{}
	store.On("List", mock.Anything).Return(nil, errors.New("token expired"))

	result, err := NewEngine(store, Options{Policy: NewCountPolicy(1)}, logging.NewNopLogger()).Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsListingFailure(err))
	assert.False(t, IsFatal(err))
	assert.False(t, result.Success())
	assert.Equal(t, 0, result.ArtifactsDeleted)
	store.AssertNotCalled(t, "BatchDelete", mock.Anything, mock.Anything)
}

func TestEngine_RunListingTimeout(t *testing.T) {
	store := &storagetest.MockStore{}
	store.On("List", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	result, err := NewEngine(store, Options{
		Policy:  NewCountPolicy(1),
		Timeout: 20 * time.Millisecond,
	}, logging.NewNopLogger()).Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsListingFailure(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, result.ArtifactsDeleted)
	store.AssertNotCalled(t, "BatchDelete", mock.Anything, mock.Anything)
}

func TestEngine_RunDeletionFailure(t *testing.T) {
	store := storagetest.NewMemoryStore(dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 5)...)
	store.DeleteErr = errors.New("permission denied")

	result, err := NewEngine(store, Options{
		Policy: NewCountPolicy(2),
		Now:    fixedClock(time.Date(2024, 1, 6, 0, 0, 0, 0, time.Local)),
	}, logging.NewNopLogger()).Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsDeletionFailure(err))
	assert.False(t, IsFatal(err))
	assert.False(t, result.Success())
	assert.Equal(t, 0, result.ArtifactsDeleted)
	assert.Len(t, result.DeletedArtifacts, 3)
	require.Len(t, store.DeleteCalls, 1)
	assert.Len(t, store.DeleteCalls[0], 3)
	assert.Len(t, store.Paths(), 5)
}

func TestEngine_RunDryRun(t *testing.T) {
	store := storagetest.NewMemoryStore(dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 5)...)
	logger, buf := bufferLogger(t)

	result, err := NewEngine(store, Options{
		Policy: NewCountPolicy(2),
		DryRun: true,
	}, logger).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 3, result.ArtifactsDeleted)
	assert.Empty(t, store.DeleteCalls)
	assert.Len(t, store.Paths(), 5)
	assert.Equal(t, 3, strings.Count(buf.String(), "-> DELETE:"))
}

func TestEngine_RunForever(t *testing.T) {
	store := storagetest.NewMemoryStore(dailyObjects(time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local), 30)...)
	logger, buf := bufferLogger(t)

	result, err := NewEngine(store, Options{Policy: ForeverPolicy{}}, logger).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 30, result.ArtifactsKept)
	assert.Empty(t, store.DeleteCalls)
	assert.Contains(t, buf.String(), "Strategy: Forever (Do nothing)")
	assert.Contains(t, buf.String(), "No files marked for deletion.")
}

func TestEngine_Plan(t *testing.T) {
	store := storagetest.NewMemoryStore(dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 10)...)

	catalog, decision, err := NewEngine(store, Options{
		Policy: NewDaysPolicy(3),
		Now:    fixedClock(time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local)),
	}, logging.NewNopLogger()).Plan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, catalog.Len())
	assert.Equal(t, ModeDays, decision.Mode)
	// Jan 8, 9 and 10 are inside the window ending Jan 7 12:00
	assert.Len(t, decision.Keep, 3)
	assert.Len(t, decision.Delete, 7)
	assert.Empty(t, store.DeleteCalls)
}

func TestEngine_RunConfirm(t *testing.T) {
	tests := []struct {
		name        string
		answer      bool
		answerErr   error
		wantErr     bool
		wantDeleted int
		wantPaths   int
		declined    bool
	}{
		{name: "approved", answer: true, wantDeleted: 3, wantPaths: 2},
		{name: "declined", answer: false, wantPaths: 5, declined: true},
		{name: "prompt failure", answerErr: errors.New("stdin closed"), wantErr: true, wantPaths: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storagetest.NewMemoryStore(dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 5)...)
			var asked []Artifact

			result, err := NewEngine(store, Options{
				Policy: NewCountPolicy(2),
				Confirm: func(ctx context.Context, decision Decision) (bool, error) {
					asked = decision.Delete
					return tt.answer, tt.answerErr
				},
			}, logging.NewNopLogger()).Run(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsDeletionFailure(err))
				assert.False(t, IsFatal(err))
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, asked, 3)
			assert.Equal(t, tt.wantDeleted, result.ArtifactsDeleted)
			assert.Equal(t, tt.declined, result.Declined)
			assert.Len(t, store.Paths(), tt.wantPaths)
		})
	}
}

func TestEngine_RunConfirmSkippedWhenNothingToDelete(t *testing.T) {
	store := storagetest.NewMemoryStore(dailyObjects(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), 2)...)
	called := false

	_, err := NewEngine(store, Options{
		Policy: NewCountPolicy(5),
		Confirm: func(ctx context.Context, decision Decision) (bool, error) {
			called = true
			return false, nil
		},
	}, logging.NewNopLogger()).Run(context.Background())

	require.NoError(t, err)
	assert.False(t, called)
}
