package usecases

import (
	"context"
	"testing"
	"time"

	"energy-server/auth"
	"energy-server/cache"
	"energy-server/catalog"
	"energy-server/entities"
	"energy-server/repositories"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store      repositories.Store
	catalog    *catalog.Catalog
	users      *UserUseCase
	devices    *DeviceUseCase
	units      *UnitUseCase
	usage      *UsageUseCase
	alerts     *AlertUseCase
	accounting *AccountingUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat, err := catalog.New([]entities.CatalogItem{
		{ID: "heater", Name: "Heater", Category: "Heating", PowerConsumption: 0.5, RecommendedHours: 4},
		{ID: "lamp", Name: "Lamp", Category: "Lighting", PowerConsumption: 0.2, RecommendedHours: 6},
		{ID: "oven", Name: "Oven", Category: "Kitchen", PowerConsumption: 2.5, RecommendedHours: 1},
		{ID: "clock", Name: "Clock", Category: "Misc", PowerConsumption: 0, RecommendedHours: 24},
	})
	require.NoError(t, err)

	store := repositories.NewMemoryStore()
	devices := NewDeviceUseCase(store.Devices, cat)
	units := NewUnitUseCase(store.Units, store.Usage, nil)
	alerts := NewAlertUseCase(store.Alerts, cache.NewAlertCache(time.Hour), nil, nil)

	return &fixture{
		store:   store,
		catalog: cat,
		users: NewUserUseCase(store.Users, &auth.Hasher{Cost: bcrypt.MinCost},
			auth.NewTokenIssuer("test-key", time.Hour), nil, nil),
		devices:    devices,
		units:      units,
		usage:      NewUsageUseCase(store.Usage, cat, nil),
		alerts:     alerts,
		accounting: NewAccountingUseCase(devices, units, alerts, DefaultUnitPrice, nil),
	}
}

func (f *fixture) register(t *testing.T, email string) *entities.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), RegisterInput{
		FullName: "Test User",
		Email:    email,
		Password: "password123",
		Phone:    "555-0100",
	})
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
