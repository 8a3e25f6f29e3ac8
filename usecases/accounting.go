package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"energy-server/entities"

	"go.uber.org/zap"
)

// DefaultUnitPrice is the price of one kWh when none is configured.
const DefaultUnitPrice = 0.15

const (
	hoursPerDay         = 24
	daysPerMonth        = 30
	lowUnitsDays        = 2.0
	highConsumptionKW   = 2.0
	highBandKW          = 1.5
	moderateBandKW      = 0.5
	fallbackHoursPerDay = 4.0
)

type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
)

// ClassifyDraw maps a household draw in kW onto its band. The band edges
// 0.5 and 1.5 are both moderate.
func ClassifyDraw(draw float64) Band {
	switch {
	case draw > highBandKW:
		return BandHigh
	case draw >= moderateBandKW:
		return BandModerate
	default:
		return BandLow
	}
}

// Projection is a snapshot of what the active selections cost and how long
// the remaining units last.
type Projection struct {
	CurrentDraw          float64
	ProjectedMonthlyCost float64
	DailyUsage           float64
	// DepletionDays is +Inf when nothing is drawing power.
	DepletionDays float64
	Band          Band
	ActiveDevices int
}

// Project computes a Projection from the user's selections. Inactive
// selections are ignored.
func Project(selections []entities.Selection, remaining, unitPrice float64) Projection {
	var (
		draw     float64
		fallback float64
		active   int
	)
	for _, s := range selections {
		if !s.IsActive {
			continue
		}
		active++
		draw += s.Draw()

		hours := s.RecommendedHours
		if hours <= 0 {
			hours = fallbackHoursPerDay
		}
		fallback += s.Draw() * hours
	}

	daily := draw * hoursPerDay
	if daily == 0 && active > 0 {
		daily = fallback
	}

	depletion := math.Inf(1)
	if daily > 0 {
		depletion = remaining / daily
	}

	return Projection{
		CurrentDraw:          draw,
		ProjectedMonthlyCost: draw * hoursPerDay * daysPerMonth * unitPrice,
		DailyUsage:           daily,
		DepletionDays:        depletion,
		Band:                 ClassifyDraw(draw),
		ActiveDevices:        active,
	}
}

// MarshalJSON rounds for display and renders an unbounded depletion as null.
func (p Projection) MarshalJSON() ([]byte, error) {
	var depletion *float64
	if !math.IsInf(p.DepletionDays, 0) && !math.IsNaN(p.DepletionDays) {
		d := round(p.DepletionDays, 1)
		depletion = &d
	}
	return json.Marshal(struct {
		CurrentDraw          float64  `json:"current_draw"`
		ProjectedMonthlyCost float64  `json:"projected_monthly_cost"`
		DailyUsage           float64  `json:"daily_usage"`
		DepletionDays        *float64 `json:"depletion_days"`
		Band                 Band     `json:"band"`
		ActiveDevices        int      `json:"active_devices"`
	}{
		CurrentDraw:          round(p.CurrentDraw, 3),
		ProjectedMonthlyCost: round(p.ProjectedMonthlyCost, 2),
		DailyUsage:           round(p.DailyUsage, 3),
		DepletionDays:        depletion,
		Band:                 p.Band,
		ActiveDevices:        p.ActiveDevices,
	})
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertTrigger is a crossed threshold. Key identifies it for deduplication.
type AlertTrigger struct {
	Type     string
	Key      string
	Severity Severity
	Message  string
}

// Triggers lists the thresholds p crosses given the remaining units.
// Low and exhausted units are mutually exclusive.
func Triggers(p Projection, remaining float64) []AlertTrigger {
	var out []AlertTrigger

	d := p.DepletionDays
	switch {
	case !math.IsInf(d, 0) && d > 0 && d <= lowUnitsDays:
		out = append(out, AlertTrigger{
			Type:     entities.AlertLowUnits,
			Key:      fmt.Sprintf("%s_%.0f", entities.AlertLowUnits, d),
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Warning: Power units are low! Estimated to last only %.1f days.", d),
		})
	case remaining <= 0 && p.ActiveDevices > 0 && p.CurrentDraw > 0:
		out = append(out, AlertTrigger{
			Type:     entities.AlertNoUnits,
			Key:      entities.AlertNoUnits,
			Severity: SeverityCritical,
			Message:  "Critical: No power units remaining!",
		})
	}

	if p.CurrentDraw > highConsumptionKW {
		out = append(out, AlertTrigger{
			Type:     entities.AlertHighConsumption,
			Key:      entities.AlertHighConsumption,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("High power consumption detected: %.2f kWh/hour.", p.CurrentDraw),
		})
	}
	return out
}

type AccountingUseCase struct {
	Devices   *DeviceUseCase
	Units     *UnitUseCase
	Alerts    *AlertUseCase
	UnitPrice float64
	Log       *zap.Logger

	now func() time.Time
}

func NewAccountingUseCase(devices *DeviceUseCase, units *UnitUseCase, alerts *AlertUseCase, unitPrice float64, log *zap.Logger) *AccountingUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountingUseCase{
		Devices:   devices,
		Units:     units,
		Alerts:    alerts,
		UnitPrice: unitPrice,
		Log:       log,
		now:       time.Now,
	}
}

type Dashboard struct {
	Units       entities.UnitSummary `json:"units"`
	Projection  Projection           `json:"projection"`
	Devices     []entities.Selection `json:"devices"`
	Alerts      []entities.Alert     `json:"alerts"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Dashboard builds the user's projection, raises any crossed alerts and
// returns the snapshot together with the unread alerts.
func (uc *AccountingUseCase) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	selections, err := uc.Devices.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.dashboardFor(ctx, userID, selections)
}

// Evaluate is Dashboard for callers that already hold the selections.
func (uc *AccountingUseCase) Evaluate(ctx context.Context, userID string, selections []entities.Selection) (*Dashboard, error) {
	return uc.dashboardFor(ctx, userID, selections)
}

func (uc *AccountingUseCase) dashboardFor(ctx context.Context, userID string, selections []entities.Selection) (*Dashboard, error) {
	summary, err := uc.Units.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	projection := Project(selections, summary.Remaining, uc.UnitPrice)
	uc.raise(ctx, userID, Triggers(projection, summary.Remaining))

	alerts, err := uc.Alerts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if selections == nil {
		selections = []entities.Selection{}
	}
	if alerts == nil {
		alerts = []entities.Alert{}
	}

	return &Dashboard{
		Units:       summary,
		Projection:  projection,
		Devices:     selections,
		Alerts:      alerts,
		GeneratedAt: uc.now().UTC(),
	}, nil
}

// raise is best effort: a failed alert write must not fail the dashboard.
func (uc *AccountingUseCase) raise(ctx context.Context, userID string, triggers []AlertTrigger) {
	for _, t := range triggers {
		if _, err := uc.Alerts.Raise(ctx, userID, t); err != nil {
			uc.Log.Error("Failed to raise alert",
				zap.String("user_id", userID),
				zap.String("alert_type", t.Type),
				zap.Error(err),
			)
		}
	}
}
