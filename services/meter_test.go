package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"energy-server/cache"
	"energy-server/catalog"
	"energy-server/entities"
	"energy-server/repositories"
	"energy-server/usecases"
	"energy-server/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[string][]interface{}
}

func (p *recordingPublisher) SendJSON(userID string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if userID == "offline" {
		return ws.ErrNotConnected
	}
	if p.sent == nil {
		p.sent = make(map[string][]interface{})
	}
	p.sent[userID] = append(p.sent[userID], v)
	return nil
}

var meterStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type meterFixture struct {
	clock   time.Time
	meter   *Meter
	store   repositories.Store
	devices *usecases.DeviceUseCase
	units   *usecases.UnitUseCase
	pub     *recordingPublisher
}

func newMeterFixture(t *testing.T) *meterFixture {
	t.Helper()
	cat, err := catalog.New([]entities.CatalogItem{
		{ID: "heater", Name: "Heater", PowerConsumption: 1.0},
		{ID: "oven", Name: "Oven", PowerConsumption: 2.5},
	})
	require.NoError(t, err)

	store := repositories.NewMemoryStore()
	devices := usecases.NewDeviceUseCase(store.Devices, cat)
	units := usecases.NewUnitUseCase(store.Units, store.Usage, nil)
	usage := usecases.NewUsageUseCase(store.Usage, cat, nil)
	alerts := usecases.NewAlertUseCase(store.Alerts, cache.NewAlertCache(time.Hour), nil, nil)
	accounting := usecases.NewAccountingUseCase(devices, units, alerts, usecases.DefaultUnitPrice, nil)
	pub := &recordingPublisher{}

	f := &meterFixture{
		clock:   meterStart,
		meter:   NewMeter(devices, usage, accounting, pub, nil, nil, "@every 1h"),
		store:   store,
		devices: devices,
		units:   units,
		pub:     pub,
	}
	f.meter.lastRun = meterStart
	devices.Now = func() time.Time { return f.clock }
	return f
}

func (f *meterFixture) activate(t *testing.T, userID, deviceID string, qty int) string {
	t.Helper()
	ctx := context.Background()
	d, _, err := f.devices.Upsert(ctx, userID, usecases.UpsertInput{DeviceID: deviceID, Quantity: &qty})
	require.NoError(t, err)
	_, err = f.devices.SetActive(ctx, d.ID, userID, true)
	require.NoError(t, err)
	return d.ID
}

func TestRunOnceRecordsElapsedUsage(t *testing.T) {
	f := newMeterFixture(t)
	ctx := context.Background()
	start := meterStart

	f.activate(t, "u1", "heater", 2)
	_, err := f.units.Purchase(ctx, "u1", 100)
	require.NoError(t, err)

	res, err := f.meter.RunOnce(ctx, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)
	assert.Equal(t, 1, res.Records)

	records, err := f.store.Usage.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 1.0, records[0].UnitsConsumed, 1e-9)
	assert.Equal(t, 30, records[0].DurationMinutes)

	summary, err := f.units.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 99.0, summary.Remaining, 1e-9)

	require.Len(t, f.pub.sent["u1"], 1)
	msg := f.pub.sent["u1"][0].(DashboardMessage)
	assert.Equal(t, "dashboard", msg.Type)
	assert.InDelta(t, 2.0, msg.Data.Projection.CurrentDraw, 1e-9)
}

func TestRunOnceRaisesAlertsWhenUnitsRunOut(t *testing.T) {
	f := newMeterFixture(t)
	ctx := context.Background()
	start := meterStart

	f.activate(t, "u1", "oven", 1)

	_, err := f.meter.RunOnce(ctx, start.Add(time.Hour))
	require.NoError(t, err)

	alerts, err := f.store.Alerts.ListUnread(ctx, "u1")
	require.NoError(t, err)
	types := map[string]bool{}
	for _, a := range alerts {
		types[a.AlertType] = true
	}
	assert.True(t, types[entities.AlertNoUnits])
	assert.True(t, types[entities.AlertHighConsumption])
}

func TestRunOnceDoesNotDoubleCount(t *testing.T) {
	f := newMeterFixture(t)
	ctx := context.Background()
	start := meterStart
	f.activate(t, "u1", "heater", 1)

	_, _, err := f.meter.RunForUser(ctx, "u1", start.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.meter.RunOnce(ctx, start.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.meter.RunOnce(ctx, start.Add(2*time.Hour))
	require.NoError(t, err)

	summary, err := f.units.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, summary.Consumed, 1e-9)
}

func TestRunOnceChargesFromActivation(t *testing.T) {
	f := newMeterFixture(t)
	ctx := context.Background()

	f.clock = meterStart.Add(59 * time.Minute)
	f.activate(t, "u1", "heater", 1)

	_, err := f.meter.RunOnce(ctx, meterStart.Add(time.Hour))
	require.NoError(t, err)

	records, err := f.store.Usage.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].DurationMinutes)

	summary, err := f.units.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/60, summary.Consumed, 1e-9)
}

func TestSwitchOffBetweenRunsIsCharged(t *testing.T) {
	f := newMeterFixture(t)
	ctx := context.Background()

	_, err := f.meter.RunOnce(ctx, meterStart.Add(time.Hour))
	require.NoError(t, err)

	f.clock = meterStart.Add(70 * time.Minute)
	id := f.activate(t, "u1", "heater", 1)

	f.clock = meterStart.Add(100 * time.Minute)
	_, err = f.devices.SetActive(ctx, id, "u1", false)
	require.NoError(t, err)

	res, err := f.meter.RunOnce(ctx, meterStart.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Records)

	records, err := f.store.Usage.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 30, records[0].DurationMinutes)
	assert.InDelta(t, 0.5, records[0].UnitsConsumed, 1e-9)
}

func TestSwitchOffAfterRunChargesOnlyTheRemainder(t *testing.T) {
	f := newMeterFixture(t)
	ctx := context.Background()

	id := f.activate(t, "u1", "oven", 1)
	_, err := f.meter.RunOnce(ctx, meterStart.Add(time.Hour))
	require.NoError(t, err)

	f.clock = meterStart.Add(75 * time.Minute)
	_, err = f.devices.SetActive(ctx, id, "u1", false)
	require.NoError(t, err)

	_, err = f.meter.RunOnce(ctx, meterStart.Add(2*time.Hour))
	require.NoError(t, err)

	summary, err := f.units.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 2.5+2.5/4, summary.Consumed, 1e-9)
}

func TestRunOnceSkipsOfflinePublish(t *testing.T) {
	f := newMeterFixture(t)
	start := meterStart
	f.activate(t, "offline", "heater", 1)

	res, err := f.meter.RunOnce(context.Background(), start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Failed)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	f := newMeterFixture(t)
	f.meter.schedule = "not a schedule"
	assert.Error(t, f.meter.Start(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	f := newMeterFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.meter.Start(ctx))
	cancel()
	f.meter.Stop()
}
