package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"energy-server/entities"
)

// memoryStore keeps every table in process memory. It backs STORE=memory
// and the use case tests.
type memoryStore struct {
	mu        sync.RWMutex
	users     map[string]entities.User
	devices   map[string]entities.UserDevice
	purchases []entities.PowerUnitPurchase
	usage     []entities.UsageRecord
	alerts    []entities.Alert
}

// NewMemoryStore returns a Store whose repositories share one in-memory dataset.
func NewMemoryStore() Store {
	s := &memoryStore{
		users:   make(map[string]entities.User),
		devices: make(map[string]entities.UserDevice),
	}
	return Store{
		Users:   memUsers{s},
		Devices: memDevices{s},
		Units:   memUnits{s},
		Usage:   memUsage{s},
		Alerts:  memAlerts{s},
	}
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type memUsers struct{ s *memoryStore }

func (m memUsers) Create(ctx context.Context, user *entities.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, u := range m.s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	_ = user.BeforeCreate(nil)
	m.s.users[user.ID] = *user
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id string) (*entities.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, u := range m.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) Update(ctx context.Context, id string, update entities.ProfileUpdate) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return ErrNotFound
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Address != nil {
		u.Address = *update.Address
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	m.s.users[id] = u
	return nil
}

func (m memUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	m.s.users[id] = u
	return nil
}

type memDevices struct{ s *memoryStore }

func (m memDevices) Create(ctx context.Context, device *entities.UserDevice) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	_ = device.BeforeCreate(nil)
	d := *device
	d.CustomName = copyString(device.CustomName)
	m.s.devices[d.ID] = d
	return nil
}

func (m memDevices) GetByUserAndDevice(ctx context.Context, userID, deviceID string) (*entities.UserDevice, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, d := range m.sortedLocked() {
		if d.UserID == userID && d.DeviceID == deviceID {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m memDevices) GetByUserID(ctx context.Context, userID string) ([]entities.UserDevice, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []entities.UserDevice
	for _, d := range m.sortedLocked() {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m memDevices) UpdateSelection(ctx context.Context, device *entities.UserDevice) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.devices[device.ID]
	if !ok || d.UserID != device.UserID {
		return ErrNotFound
	}
	d.Quantity = device.Quantity
	d.CustomName = copyString(device.CustomName)
	m.s.devices[d.ID] = d
	return nil
}

func (m memDevices) GetByID(ctx context.Context, id, userID string) (*entities.UserDevice, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	d, ok := m.s.devices[id]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	d.CustomName = copyString(d.CustomName)
	d.ActivatedAt = copyTime(d.ActivatedAt)
	return &d, nil
}

func (m memDevices) SetActive(ctx context.Context, id, userID string, active bool, activatedAt *time.Time) (*entities.UserDevice, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.devices[id]
	if !ok || d.UserID != userID {
		return nil, ErrNotFound
	}
	d.IsActive = active
	d.ActivatedAt = copyTime(activatedAt)
	m.s.devices[id] = d
	out := d
	out.CustomName = copyString(d.CustomName)
	out.ActivatedAt = copyTime(d.ActivatedAt)
	return &out, nil
}

func (m memDevices) Delete(ctx context.Context, id, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.devices[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	delete(m.s.devices, id)
	return nil
}

func (m memDevices) ListActive(ctx context.Context) ([]entities.UserDevice, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []entities.UserDevice
	for _, d := range m.sortedLocked() {
		if d.IsActive {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// sortedLocked returns copies ordered by id, matching the pg ordering.
func (m memDevices) sortedLocked() []entities.UserDevice {
	out := make([]entities.UserDevice, 0, len(m.s.devices))
	for _, d := range m.s.devices {
		d.CustomName = copyString(d.CustomName)
		d.ActivatedAt = copyTime(d.ActivatedAt)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memUnits struct{ s *memoryStore }

func (m memUnits) Create(ctx context.Context, purchase *entities.PowerUnitPurchase) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	_ = purchase.BeforeCreate(nil)
	m.s.purchases = append(m.s.purchases, *purchase)
	return nil
}

func (m memUnits) SumByUser(ctx context.Context, userID string) (float64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var total float64
	for _, p := range m.s.purchases {
		if p.UserID == userID {
			total += p.UnitsAmount
		}
	}
	return total, nil
}

type memUsage struct{ s *memoryStore }

func (m memUsage) Create(ctx context.Context, record *entities.UsageRecord) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	_ = record.BeforeCreate(nil)
	m.s.usage = append(m.s.usage, *record)
	return nil
}

func (m memUsage) ListByUser(ctx context.Context, userID string, limit int) ([]entities.UsageRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []entities.UsageRecord
	for i := len(m.s.usage) - 1; i >= 0; i-- {
		if m.s.usage[i].UserID == userID {
			out = append(out, m.s.usage[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memUsage) SumConsumedByUser(ctx context.Context, userID string) (float64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var total float64
	for _, r := range m.s.usage {
		if r.UserID == userID {
			total += r.UnitsConsumed
		}
	}
	return total, nil
}

type memAlerts struct{ s *memoryStore }

func (m memAlerts) Create(ctx context.Context, alert *entities.Alert) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	_ = alert.BeforeCreate(nil)
	m.s.alerts = append(m.s.alerts, *alert)
	return nil
}

func (m memAlerts) ListUnread(ctx context.Context, userID string) ([]entities.Alert, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []entities.Alert
	for i := len(m.s.alerts) - 1; i >= 0; i-- {
		a := m.s.alerts[i]
		if a.UserID == userID && !a.IsRead {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memAlerts) MarkRead(ctx context.Context, id, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for i := range m.s.alerts {
		if m.s.alerts[i].ID == id && m.s.alerts[i].UserID == userID {
			m.s.alerts[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}
