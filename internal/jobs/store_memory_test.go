package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job := Job{
		ID:        "job-1",
		Status:    StatusQueued,
		Stage:     "queued",
		FileName:  "invoices.pdf",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, StatusQueued, got.Status)
	require.Equal(t, "invoices.pdf", got.FileName)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateTransitions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, Job{ID: "job-1", Status: StatusQueued}))

	require.NoError(t, store.Update(ctx, "job-1", Update{
		Status: StrPtr(StatusProcessing),
		Stage:  StrPtr("analyzing document"),
	}))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, got.Status)
	require.Equal(t, "analyzing document", got.Stage)
	require.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.Update(ctx, "job-1", Update{
		Status: StrPtr(StatusCompleted),
		Stage:  StrPtr("done"),
		Result: map[string]any{"risk_level": "Low"},
	}))

	got, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), "missing", Update{Status: StrPtr(StatusFailed)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PartialUpdateKeepsOtherFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, Job{
		ID:       "job-1",
		Status:   StatusProcessing,
		Stage:    "analyzing document",
		FileName: "q1.pdf",
	}))

	require.NoError(t, store.Update(ctx, "job-1", Update{Stage: StrPtr("enriching result")}))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, got.Status)
	require.Equal(t, "enriching result", got.Stage)
	require.Equal(t, "q1.pdf", got.FileName)
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, Job{ID: "job-1", Status: StatusQueued}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, "job-1", Update{Stage: StrPtr("analyzing document")})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, "analyzing document", got.Stage)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, store.Create(ctx, Job{ID: "job-1"}))
	_, err := store.Get(ctx, "job-1")
	require.Error(t, err)
}
