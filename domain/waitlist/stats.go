package waitlist

import (
	"context"
	"time"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

// StatsScheduleDisabled turns the periodic CSV scan off.
const StatsScheduleDisabled = "off"

const statsScanTimeout = 30 * time.Second

type WaitlistScanner interface {
	Scan(ctx context.Context) (*csvstore.Summary, error)
}

// StatsRefresher periodically reads the CSV back and publishes its size and
// header health as gauges.
type StatsRefresher struct {
	scanner WaitlistScanner
	logger  *log.Logger
	now     func() time.Time
	cron    *cron.Cron

	entries     prometheus.Gauge
	malformed   prometheus.Gauge
	headerValid prometheus.Gauge
	lastScan    prometheus.Gauge
}

func NewStatsRefresher(scanner WaitlistScanner, logger *log.Logger, reg prometheus.Registerer) *StatsRefresher {
	r := &StatsRefresher{
		scanner: scanner,
		logger:  logger,
		now:     time.Now,
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_entries",
			Help: "Data rows in the waitlist CSV at the last scan.",
		}),
		malformed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_malformed_rows",
			Help: "CSV rows whose column count does not match the header.",
		}),
		headerValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_header_valid",
			Help: "1 when the CSV is missing or starts with the expected header.",
		}),
		lastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_last_scan_timestamp_seconds",
			Help: "Unix time of the last successful CSV scan.",
		}),
	}

	if reg != nil {
		r.entries = registerOrExisting(reg, r.entries)
		r.malformed = registerOrExisting(reg, r.malformed)
		r.headerValid = registerOrExisting(reg, r.headerValid)
		r.lastScan = registerOrExisting(reg, r.lastScan)
	}
	return r
}

// Refresh runs one scan and updates the gauges. On error the previous values
// are kept.
func (r *StatsRefresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, statsScanTimeout)
	defer cancel()

	summary, err := r.scanner.Scan(ctx)
	if err != nil {
		r.logger.Warn("Waitlist stats scan failed", "error", err)
		return err
	}

	r.entries.Set(float64(summary.RowCount()))
	r.malformed.Set(float64(summary.Malformed))
	if summary.HeaderValid || !summary.Exists {
		r.headerValid.Set(1)
	} else {
		r.headerValid.Set(0)
	}
	r.lastScan.Set(float64(r.now().Unix()))

	r.logger.Debug("Waitlist stats refreshed", "path", summary.Path, "rows", summary.RowCount(), "malformed", summary.Malformed)
	return nil
}

// Start scans once, then on schedule (a cron spec or @every duration). It
// is a no-op for StatsScheduleDisabled.
func (r *StatsRefresher) Start(schedule string) error {
	if schedule == StatsScheduleDisabled {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{r.logger}),
		cron.SkipIfStillRunning(cronLogger{r.logger}),
	))
	if _, err := c.AddFunc(schedule, func() { _ = r.Refresh(context.Background()) }); err != nil {
		return err
	}

	_ = r.Refresh(context.Background())
	c.Start()
	r.cron = c

	r.logger.Info("Waitlist stats refresher started", "schedule", schedule)
	return nil
}

// Stop waits for a running scan to finish.
func (r *StatsRefresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
