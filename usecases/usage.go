package usecases

import (
	"context"

	"energy-server/apperrors"
	"energy-server/catalog"
	"energy-server/entities"
	"energy-server/metrics"
	"energy-server/repositories"
)

type UsageUseCase struct {
	Usage   repositories.UsageRepository
	Catalog *catalog.Catalog
	Metrics *metrics.Metrics
}

func NewUsageUseCase(usage repositories.UsageRepository, cat *catalog.Catalog, m *metrics.Metrics) *UsageUseCase {
	return &UsageUseCase{Usage: usage, Catalog: cat, Metrics: m}
}

// LogInput uses pointers so an absent number is distinguishable from zero.
type LogInput struct {
	DeviceID        string   `json:"device_id"`
	DurationMinutes *int     `json:"duration_minutes"`
	UnitsConsumed   *float64 `json:"units_consumed"`
}

func (uc *UsageUseCase) Log(ctx context.Context, userID string, in LogInput) (*entities.UsageRecord, error) {
	if in.DeviceID == "" || in.DurationMinutes == nil || in.UnitsConsumed == nil {
		return nil, apperrors.Validation("device_id, duration_minutes, and units_consumed are required.")
	}

	record := &entities.UsageRecord{
		UserID:          userID,
		DeviceID:        in.DeviceID,
		DurationMinutes: *in.DurationMinutes,
		UnitsConsumed:   *in.UnitsConsumed,
	}
	if err := uc.Record(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Record appends an already-built record.
func (uc *UsageUseCase) Record(ctx context.Context, record *entities.UsageRecord) error {
	if err := uc.Usage.Create(ctx, record); err != nil {
		return storeErr("Error logging usage.", err)
	}
	uc.Metrics.AddUsage(1)
	return nil
}

// UsageEntry is a usage record with the catalog name of its device.
type UsageEntry struct {
	entities.UsageRecord
	DeviceName string `json:"device_name,omitempty"`
}

// History lists the user's usage newest first. limit <= 0 returns everything.
func (uc *UsageUseCase) History(ctx context.Context, userID string, limit int) ([]UsageEntry, error) {
	records, err := uc.Usage.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("Error fetching usage history.", err)
	}

	out := make([]UsageEntry, 0, len(records))
	for _, r := range records {
		entry := UsageEntry{UsageRecord: r}
		if item, ok := uc.Catalog.Lookup(r.DeviceID); ok {
			entry.DeviceName = item.Name
		}
		out = append(out, entry)
	}
	return out, nil
}
