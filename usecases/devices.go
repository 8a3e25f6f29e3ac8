package usecases

import (
	"context"
	"time"

	"energy-server/apperrors"
	"energy-server/catalog"
	"energy-server/entities"
	"energy-server/repositories"
)

// SettleFunc charges a selection that is about to be switched off for the
// time it ran, up to at.
type SettleFunc func(ctx context.Context, s entities.Selection, at time.Time) error

type DeviceUseCase struct {
	Devices repositories.UserDeviceRepository
	Catalog *catalog.Catalog
	Now     func() time.Time

	settle SettleFunc
}

func NewDeviceUseCase(devices repositories.UserDeviceRepository, cat *catalog.Catalog) *DeviceUseCase {
	return &DeviceUseCase{Devices: devices, Catalog: cat, Now: time.Now}
}

// OnDeactivate registers fn to run before an active selection is switched off.
func (uc *DeviceUseCase) OnDeactivate(fn SettleFunc) {
	uc.settle = fn
}

// HouseholdItems returns the full appliance catalog.
func (uc *DeviceUseCase) HouseholdItems() []entities.CatalogItem {
	return uc.Catalog.List()
}

type UpsertInput struct {
	DeviceID   string  `json:"device_id"`
	Quantity   *int    `json:"quantity"`
	CustomName *string `json:"custom_name"`
}

// Upsert adds the catalog item to the user's selection or, when the user
// already has it, replaces its quantity and custom name. created reports
// which happened.
func (uc *DeviceUseCase) Upsert(ctx context.Context, userID string, in UpsertInput) (device *entities.UserDevice, created bool, err error) {
	if in.DeviceID == "" || in.Quantity == nil {
		return nil, false, apperrors.Validation("Device ID and quantity are required.")
	}
	if *in.Quantity <= 0 {
		return nil, false, apperrors.Validation("Quantity must be positive.")
	}
	if _, ok := uc.Catalog.Lookup(in.DeviceID); !ok {
		return nil, false, apperrors.Validation("Unknown device_id.")
	}

	existing, err := uc.Devices.GetByUserAndDevice(ctx, userID, in.DeviceID)
	switch {
	case err == nil:
		existing.Quantity = *in.Quantity
		existing.CustomName = in.CustomName
		if err := uc.Devices.UpdateSelection(ctx, existing); err != nil {
			return nil, false, storeErr("Error updating device.", err)
		}
		return existing, false, nil
	case !isNotFound(err):
		return nil, false, storeErr("Error managing device.", err)
	}

	device = &entities.UserDevice{
		UserID:     userID,
		DeviceID:   in.DeviceID,
		Quantity:   *in.Quantity,
		IsActive:   false,
		CustomName: in.CustomName,
	}
	if err := uc.Devices.Create(ctx, device); err != nil {
		return nil, false, storeErr("Error adding device.", err)
	}
	return device, true, nil
}

// SetActive switches a selection on or off. Switching on stamps the
// activation time once; switching an active selection off settles its
// usage first.
func (uc *DeviceUseCase) SetActive(ctx context.Context, id, userID string, active bool) (*entities.UserDevice, error) {
	current, err := uc.Devices.GetByID(ctx, id, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("Device not found or not authorized.")
		}
		return nil, storeErr("Error toggling device state.", err)
	}

	now := uc.Now()
	activatedAt := current.ActivatedAt
	switch {
	case !active:
		activatedAt = nil
	case !current.IsActive:
		activatedAt = &now
	}

	if !active && current.IsActive && uc.settle != nil {
		if err := uc.settle(ctx, uc.enrich([]entities.UserDevice{*current})[0], now); err != nil {
			return nil, err
		}
	}

	device, err := uc.Devices.SetActive(ctx, id, userID, active, activatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("Device not found or not authorized.")
		}
		return nil, storeErr("Error toggling device state.", err)
	}
	return device, nil
}

func (uc *DeviceUseCase) Remove(ctx context.Context, id, userID string) error {
	if err := uc.Devices.Delete(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return apperrors.NotFound("Device not found or not authorized to delete.")
		}
		return storeErr("Error deleting device.", err)
	}
	return nil
}

// List returns the user's selections joined with catalog data.
func (uc *DeviceUseCase) List(ctx context.Context, userID string) ([]entities.Selection, error) {
	devices, err := uc.Devices.GetByUserID(ctx, userID)
	if err != nil {
		return nil, storeErr("Error fetching user devices.", err)
	}
	return uc.enrich(devices), nil
}

// ActiveByUser groups every active selection in the store by user.
func (uc *DeviceUseCase) ActiveByUser(ctx context.Context) (map[string][]entities.Selection, error) {
	devices, err := uc.Devices.ListActive(ctx)
	if err != nil {
		return nil, storeErr("Error fetching active devices.", err)
	}
	out := make(map[string][]entities.Selection)
	for _, s := range uc.enrich(devices) {
		out[s.UserID] = append(out[s.UserID], s)
	}
	return out, nil
}

// enrich joins rows with the catalog. Rows whose item has left the catalog
// keep the raw id as name and draw nothing.
func (uc *DeviceUseCase) enrich(devices []entities.UserDevice) []entities.Selection {
	out := make([]entities.Selection, 0, len(devices))
	for _, d := range devices {
		s := entities.Selection{UserDevice: d, Name: d.DeviceID}
		if item, ok := uc.Catalog.Lookup(d.DeviceID); ok {
			s.Name = item.Name
			s.Category = item.Category
			s.PowerConsumption = item.PowerConsumption
			s.Icon = item.Icon
			s.RecommendedHours = item.RecommendedHours
		}
		out = append(out, s)
	}
	return out
}
