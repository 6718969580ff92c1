package fleet

import (
	"context"
	"sync"

	"github.com/nerrad567/keyline-core/internal/activity"
	"github.com/nerrad567/keyline-core/internal/backend"
	"github.com/nerrad567/keyline-core/internal/device"
	"github.com/nerrad567/keyline-core/internal/push"
)

// mockBackend is a scriptable in-memory backend.
type mockBackend struct {
	mu sync.Mutex

	session backend.Session
	authErr error

	locks     []device.Device
	doorbells []device.Device
	listErr   error

	lockDetails     map[string]*device.LockDetail
	doorbellDetails map[string]*device.DoorbellDetail
	detailErrs      map[string]error
	detailCalls     []string

	opActivities []activity.Activity
	opErr        error
	opCalls      []string

	statusAsyncCalls []string
	statusAsyncErr   error

	houseActivities []activity.Activity
	houseCalls      []string
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		session:         backend.Session{AccessToken: "token", UserID: "user-1"},
		lockDetails:     make(map[string]*device.LockDetail),
		doorbellDetails: make(map[string]*device.DoorbellDetail),
		detailErrs:      make(map[string]error),
	}
}

func (m *mockBackend) Authenticate(ctx context.Context) (backend.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authErr != nil {
		return backend.Session{}, m.authErr
	}
	return m.session, nil
}

func (m *mockBackend) RefreshAccessTokenIfNeeded(ctx context.Context) error {
	return nil
}

func (m *mockBackend) GetUser(ctx context.Context) (backend.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authErr != nil {
		return backend.User{}, m.authErr
	}
	return backend.User{UserID: m.session.UserID, FirstName: "Test"}, nil
}

func (m *mockBackend) GetOperableLocks(ctx context.Context) ([]device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks, m.listErr
}

func (m *mockBackend) GetDoorbells(ctx context.Context) ([]device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doorbells, m.listErr
}

func (m *mockBackend) GetLockDetail(ctx context.Context, lockID string) (*device.LockDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls = append(m.detailCalls, lockID)
	if err := m.detailErrs[lockID]; err != nil {
		return nil, err
	}
	detail, ok := m.lockDetails[lockID]
	if !ok {
		return nil, &backend.APIError{StatusCode: 404, Message: "no such lock"}
	}
	return detail.Clone(), nil
}

func (m *mockBackend) GetDoorbellDetail(ctx context.Context, doorbellID string) (*device.DoorbellDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls = append(m.detailCalls, doorbellID)
	if err := m.detailErrs[doorbellID]; err != nil {
		return nil, err
	}
	detail, ok := m.doorbellDetails[doorbellID]
	if !ok {
		return nil, &backend.APIError{StatusCode: 404, Message: "no such doorbell"}
	}
	return detail.Clone(), nil
}

func (m *mockBackend) LockReturnActivities(ctx context.Context, lockID string) ([]activity.Activity, error) {
	return m.operate("lock", lockID)
}

func (m *mockBackend) UnlockReturnActivities(ctx context.Context, lockID string) ([]activity.Activity, error) {
	return m.operate("unlock", lockID)
}

func (m *mockBackend) operate(op, lockID string) ([]activity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opCalls = append(m.opCalls, op+":"+lockID)
	if m.opErr != nil {
		return nil, m.opErr
	}
	return m.opActivities, nil
}

func (m *mockBackend) LockAsync(ctx context.Context, lockID string, hyperBridge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opCalls = append(m.opCalls, "lock_async:"+lockID)
	return m.opErr
}

func (m *mockBackend) UnlockAsync(ctx context.Context, lockID string, hyperBridge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opCalls = append(m.opCalls, "unlock_async:"+lockID)
	return m.opErr
}

func (m *mockBackend) StatusAsync(ctx context.Context, lockID string, hyperBridge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusAsyncCalls = append(m.statusAsyncCalls, lockID)
	return m.statusAsyncErr
}

func (m *mockBackend) GetHouseActivities(ctx context.Context, houseID string, limit int) ([]activity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.houseCalls = append(m.houseCalls, houseID)
	return m.houseActivities, nil
}

func (m *mockBackend) statusAsyncCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.statusAsyncCalls)
}

// mockPush is a scriptable push channel.
type mockPush struct {
	mu        sync.Mutex
	connected bool
	handler   push.MessageHandler
	listens   int
	stops     int
	listenErr error
}

func (m *mockPush) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPush) Listen(brand, userID string, handler push.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listenErr != nil {
		return m.listenErr
	}
	m.handler = handler
	m.listens++
	m.connected = true
	return nil
}

func (m *mockPush) StopListening(brand, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.connected = false
	return nil
}

// mockRecorder captures recorded activities.
type mockRecorder struct {
	mu       sync.Mutex
	recorded []activity.Activity
}

func (m *mockRecorder) Record(ctx context.Context, act activity.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, act)
	return nil
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recorded)
}

// updateCollector gathers update notifications.
type updateCollector struct {
	mu  sync.Mutex
	ids []string
}

func (u *updateCollector) fn() UpdateFunc {
	return func(deviceID string) {
		u.mu.Lock()
		u.ids = append(u.ids, deviceID)
		u.mu.Unlock()
	}
}

func (u *updateCollector) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ids)
}

func bridgedLockDetail(id, name string) *device.LockDetail {
	return &device.LockDetail{
		ID:           id,
		Name:         name,
		House:        "house-1",
		BatteryLevel: 80,
		Bridge:       &device.Bridge{ID: "bridge-" + id, Online: true, HyperBridge: true},
		LockStatus:   device.LockStatusLocked,
		DoorState:    device.DoorStateClosed,
	}
}

func fleetDevice(id, name string, kind device.Kind) device.Device {
	return device.Device{ID: id, Name: name, HouseID: "house-1", Kind: kind}
}
