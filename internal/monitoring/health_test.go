package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gatepass/internal/database/testutil"
	"github.com/charlesng35/gatepass/internal/storage"
)

func TestHealthManagerAggregatesWorstStatus(t *testing.T) {
	manager := NewHealthManager(50 * time.Millisecond)
	manager.Register("ok", func(context.Context) error { return nil })

	report := manager.Evaluate(context.Background())
	require.True(t, report.Success)
	require.Equal(t, StatusUp, report.Status)

	manager.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	report = manager.Evaluate(context.Background())
	require.False(t, report.Success)
	require.Equal(t, StatusDegraded, report.Status)

	manager.Register("broken", func(context.Context) error { return errors.New("boom") })
	report = manager.Evaluate(context.Background())
	require.Equal(t, StatusDown, report.Status)
	require.Len(t, report.Checks, 3)
	require.Equal(t, "broken", report.Checks[2].Component)
	require.Equal(t, "boom", report.Checks[2].Details)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	manager := NewHealthManager(0)
	manager.Register("panicky", func(context.Context) error { panic("nope") })
	manager.Register("", func(context.Context) error { return nil })
	manager.Register("nil", nil)

	report := manager.Evaluate(context.Background())
	require.Len(t, report.Checks, 1)
	require.Equal(t, StatusDown, report.Checks[0].Status)
	require.Contains(t, report.Checks[0].Details, "nope")
}

func TestDatabaseProbe(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	require.NoError(t, DatabaseProbe(db)(context.Background()))
}

func TestImageStoreProbe(t *testing.T) {
	store, err := storage.NewLocalStore(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, ImageStoreProbe(store)(context.Background()))

	require.Error(t, ImageStoreProbe(nil)(context.Background()))
}
