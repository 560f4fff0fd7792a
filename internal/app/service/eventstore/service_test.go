package eventstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/internal/platform/db/dbtest"
)

func TestInsert_DuplicateIsSignalledByConstraint(t *testing.T) {
	gdb := dbtest.New(t)
	s := New(gdb, zap.NewNop().Sugar())
	ctx := context.Background()

	ok, err := s.Has(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Insert(ctx, "evt_1", "checkout.session.completed", []byte(`{"id":"evt_1"}`)))
	require.ErrorIs(t, s.Insert(ctx, "evt_1", "checkout.session.completed", []byte(`{"id":"evt_1"}`)), ErrDuplicateEvent)

	ok, err = s.Has(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, ok)

	var n int64
	require.NoError(t, gdb.Model(&models.ProviderEvent{}).Count(&n).Error)
	require.Equal(t, int64(1), n)
}

func TestInsert_ConcurrentDuplicates(t *testing.T) {
	gdb := dbtest.New(t)
	s := New(gdb, zap.NewNop().Sugar())

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		dupes    int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Insert(context.Background(), "evt_race", "payment_intent.succeeded", []byte(`{}`))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				inserted++
			} else if err == ErrDuplicateEvent {
				dupes++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, inserted)
	require.Equal(t, workers-1, dupes)
}

func TestClaim_OnlyFailedEvents(t *testing.T) {
	gdb := dbtest.New(t)
	s := New(gdb, zap.NewNop().Sugar())
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "evt_1", "checkout.session.completed", []byte(`{}`)))

	claimed, err := s.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, claimed, "in-flight event cannot be claimed")

	require.NoError(t, s.MarkFailed(ctx, "evt_1", "db down"))
	var ev models.ProviderEvent
	require.NoError(t, gdb.First(&ev, "event_id = ?", "evt_1").Error)
	require.Equal(t, models.ProviderEventStatusFailed, ev.Status)
	require.NotNil(t, ev.LastError)

	claimed, err = s.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, claimed)
	claimed, err = s.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, claimed, "second claim loses")

	require.NoError(t, s.MarkProcessed(ctx, "evt_1"))
	require.NoError(t, gdb.First(&ev, "event_id = ?", "evt_1").Error)
	require.Equal(t, models.ProviderEventStatusProcessed, ev.Status)
	require.NotNil(t, ev.ProcessedAt)
	require.Nil(t, ev.LastError)
}
