package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"energy-server/entities"
	"energy-server/metrics"
	"energy-server/usecases"
	"energy-server/ws"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Publisher pushes a message to every live connection of a user.
type Publisher interface {
	SendJSON(userID string, v interface{}) error
}

// DashboardMessage is the envelope pushed to dashboard streams.
type DashboardMessage struct {
	Type string              `json:"type"`
	Data *usecases.Dashboard `json:"data"`
}

type RunResult struct {
	Users   int `json:"users"`
	Records int `json:"records"`
	Failed  int `json:"failed"`
}

// Meter turns active selections into usage records on a schedule, then
// re-evaluates each affected user's projection so alerts fire server-side.
type Meter struct {
	devices    *usecases.DeviceUseCase
	usage      *usecases.UsageUseCase
	accounting *usecases.AccountingUseCase
	publisher  Publisher
	metrics    *metrics.Metrics
	log        *zap.Logger
	schedule   string

	mu       sync.Mutex
	lastRun  time.Time
	lastUser map[string]time.Time
	cron     *cron.Cron
}

func NewMeter(devices *usecases.DeviceUseCase, usage *usecases.UsageUseCase, accounting *usecases.AccountingUseCase,
	publisher Publisher, m *metrics.Metrics, log *zap.Logger, schedule string) *Meter {
	if log == nil {
		log = zap.NewNop()
	}
	meter := &Meter{
		devices:    devices,
		usage:      usage,
		accounting: accounting,
		publisher:  publisher,
		metrics:    m,
		log:        log,
		schedule:   schedule,
		lastRun:    time.Now(),
		lastUser:   make(map[string]time.Time),
	}
	if devices != nil {
		devices.OnDeactivate(meter.Settle)
	}
	return meter
}

// Start schedules RunOnce. The job stops when ctx is cancelled or Stop is called.
func (m *Meter) Start(ctx context.Context) error {
	logger := cronLogger{m.log.Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc(m.schedule, func() {
		if _, err := m.RunOnce(ctx, time.Now()); err != nil {
			m.log.Error("Meter run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	c.Start()
	m.log.Info("Meter started", zap.String("schedule", m.schedule))

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (m *Meter) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		m.log.Info("Meter stopped")
	}
}

// RunOnce meters every user with an active selection for the time since
// the previous run.
func (m *Meter) RunOnce(ctx context.Context, now time.Time) (RunResult, error) {
	grouped, err := m.devices.ActiveByUser(ctx)
	if err != nil {
		m.metrics.IncMeterRun(false)
		return RunResult{}, err
	}

	m.mu.Lock()
	since := make(map[string]time.Time, len(grouped))
	for userID := range grouped {
		since[userID] = m.baselineLocked(userID)
	}
	m.lastRun = now
	m.lastUser = make(map[string]time.Time)
	m.mu.Unlock()

	var res RunResult
	for userID, selections := range grouped {
		n, err := m.meterUser(ctx, userID, selections, since[userID], now)
		res.Records += n
		res.Users++
		if err != nil {
			res.Failed++
			m.log.Error("Metering user failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	m.metrics.IncMeterRun(res.Failed == 0)
	m.log.Info("Meter run completed",
		zap.Int("users", res.Users),
		zap.Int("records", res.Records),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// RunForUser meters a single user immediately.
func (m *Meter) RunForUser(ctx context.Context, userID string, now time.Time) (*usecases.Dashboard, int, error) {
	selections, err := m.devices.List(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	since := m.baselineLocked(userID)
	m.lastUser[userID] = now
	m.mu.Unlock()

	records, err := m.record(ctx, userID, selections, since, now)
	if err != nil {
		return nil, records, err
	}
	dash, err := m.evaluate(ctx, userID, selections)
	return dash, records, err
}

// Settle records the usage of a selection being switched off, from the
// later of its activation and the user's last metering up to at.
func (m *Meter) Settle(ctx context.Context, s entities.Selection, at time.Time) error {
	m.mu.Lock()
	since := m.baselineLocked(s.UserID)
	m.mu.Unlock()

	_, err := m.record(ctx, s.UserID, []entities.Selection{s}, since, at)
	return err
}

func (m *Meter) meterUser(ctx context.Context, userID string, selections []entities.Selection, since, now time.Time) (int, error) {
	records, err := m.record(ctx, userID, selections, since, now)
	if err != nil {
		return records, err
	}
	_, err = m.evaluate(ctx, userID, selections)
	return records, err
}

// record writes one usage record per active selection. A selection is
// charged from since, or from its activation when that is later.
func (m *Meter) record(ctx context.Context, userID string, selections []entities.Selection, since, now time.Time) (int, error) {
	n := 0
	for _, s := range selections {
		if !s.IsActive || s.Draw() <= 0 {
			continue
		}
		start := since
		if s.ActivatedAt != nil && s.ActivatedAt.After(start) {
			start = *s.ActivatedAt
		}
		elapsed := now.Sub(start)
		if elapsed <= 0 {
			continue
		}
		rec := &entities.UsageRecord{
			UserID:          userID,
			DeviceID:        s.DeviceID,
			Timestamp:       now.UTC(),
			DurationMinutes: int(math.Round(elapsed.Minutes())),
			UnitsConsumed:   s.Draw() * elapsed.Hours(),
		}
		if err := m.usage.Record(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Meter) evaluate(ctx context.Context, userID string, selections []entities.Selection) (*usecases.Dashboard, error) {
	dash, err := m.accounting.Evaluate(ctx, userID, selections)
	if err != nil {
		return nil, err
	}
	if m.publisher != nil {
		err := m.publisher.SendJSON(userID, DashboardMessage{Type: "dashboard", Data: dash})
		if err != nil && !errors.Is(err, ws.ErrNotConnected) {
			m.log.Warn("Failed to push dashboard", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return dash, nil
}

func (m *Meter) baselineLocked(userID string) time.Time {
	if t, ok := m.lastUser[userID]; ok && t.After(m.lastRun) {
		return t
	}
	return m.lastRun
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
