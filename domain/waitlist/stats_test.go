package waitlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scannerFunc func(ctx context.Context) (*csvstore.Summary, error)

func (f scannerFunc) Scan(ctx context.Context) (*csvstore.Summary, error) { return f(ctx) }

func TestStatsRefresher_Refresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.csv")
	store := csvstore.New(path)
	ctx := context.Background()

	require.NoError(t, store.EnsureReady(ctx))
	require.NoError(t, store.Append(ctx, csvstore.Record{FullName: "Ada", Email: "ada@example.com", Phone: "1"}))
	require.NoError(t, store.Append(ctx, csvstore.Record{FullName: "Grace", Email: "grace@example.com", Phone: "2"}))

	r := NewStatsRefresher(store, log.NewLoggerWithJSONOutput(), prometheus.NewRegistry())
	r.now = func() time.Time { return fixedNow }

	require.NoError(t, r.Refresh(ctx))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.entries))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.malformed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.headerValid))
	assert.Equal(t, float64(fixedNow.Unix()), testutil.ToFloat64(r.lastScan))
}

func TestStatsRefresher_ForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email\nAda,ada@example.com\n"), 0o644))

	r := NewStatsRefresher(csvstore.New(path), log.NewLoggerWithJSONOutput(), nil)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.headerValid))
}

func TestStatsRefresher_MissingFileIsHealthy(t *testing.T) {
	r := NewStatsRefresher(csvstore.New(filepath.Join(t.TempDir(), "none.csv")), log.NewLoggerWithJSONOutput(), nil)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.entries))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.headerValid))
}

func TestStatsRefresher_ScanErrorKeepsGauges(t *testing.T) {
	calls := 0
	r := NewStatsRefresher(scannerFunc(func(context.Context) (*csvstore.Summary, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("permission denied")
		}
		return &csvstore.Summary{Exists: true, HeaderValid: true, Rows: make([]csvstore.Record, 3)}, nil
	}), log.NewLoggerWithJSONOutput(), nil)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.entries))
}

func TestStatsRefresher_Start(t *testing.T) {
	scans := make(chan struct{}, 8)
	r := NewStatsRefresher(scannerFunc(func(context.Context) (*csvstore.Summary, error) {
		scans <- struct{}{}
		return &csvstore.Summary{}, nil
	}), log.NewLoggerWithJSONOutput(), nil)

	assert.Error(t, r.Start("not a schedule"))
	assert.NoError(t, r.Start(StatsScheduleDisabled))
	assert.Empty(t, scans)

	require.NoError(t, r.Start("@every 1h"))
	defer r.Stop()

	assert.Len(t, scans, 1)
}
