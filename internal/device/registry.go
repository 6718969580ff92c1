package device

import "sync"

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the authoritative in-memory view of the fleet: the lock and
// doorbell identity collections plus one shared detail map keyed by device id.
// Keypad details are stored in the same map under their own id.
//
// The backend is the source of record; nothing here is persisted. The mutex is
// held only for map operations, never across network calls, so a slow fetch
// for one device can never delay reads or writes for another.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	locks     map[string]Device
	doorbells map[string]Device
	details   map[string]Detail
	logger    Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		locks:     make(map[string]Device),
		doorbells: make(map[string]Device),
		details:   make(map[string]Detail),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddDevice records a device identity in the collection matching its kind.
// Keypads are not identity records; they only ever appear as details.
func (r *Registry) AddDevice(d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch d.Kind {
	case KindLock:
		r.locks[d.ID] = d
	case KindDoorbell:
		r.doorbells[d.ID] = d
	default:
		r.logger.Warn("ignoring device with unsupported kind", "id", d.ID, "kind", d.Kind)
	}
}

// Device looks up a device identity across both kind collections.
// The lock collection takes precedence on an id collision.
func (r *Registry) Device(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.locks[id]; ok {
		return d, true
	}
	if d, ok := r.doorbells[id]; ok {
		return d, true
	}
	return Device{}, false
}

// DeviceName returns the human-readable name for a device id, or the empty
// string when the device is unknown.
func (r *Registry) DeviceName(id string) string {
	if d, ok := r.Device(id); ok {
		return d.Name
	}
	return ""
}

// Detail returns the current detail snapshot for a device.
// Returns ErrDetailNotFound if no snapshot has been stored.
func (r *Registry) Detail(id string) (Detail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	detail, ok := r.details[id]
	if !ok {
		return nil, ErrDetailNotFound
	}
	return detail, nil
}

// UpsertDetail replaces the detail snapshot for a device wholesale.
// Replacement is atomic by reference; readers holding the previous snapshot
// keep a consistent view.
func (r *Registry) UpsertDetail(detail Detail) {
	r.mu.Lock()
	r.details[detail.DeviceID()] = detail
	r.mu.Unlock()
}

// RemoveDetail drops the detail snapshot for a device, leaving the identity
// record (if any) in place.
func (r *Registry) RemoveDetail(id string) {
	r.mu.Lock()
	delete(r.details, id)
	r.mu.Unlock()
}

// RemoveDevice removes a device from whichever kind collection holds it and
// from the detail map.
func (r *Registry) RemoveDevice(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locks, id)
	delete(r.doorbells, id)
	delete(r.details, id)
}

// Locks returns a snapshot of the lock identity collection.
func (r *Registry) Locks() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.locks))
	for _, d := range r.locks {
		devices = append(devices, d)
	}
	return devices
}

// Doorbells returns a snapshot of the doorbell identity collection.
func (r *Registry) Doorbells() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.doorbells))
	for _, d := range r.doorbells {
		devices = append(devices, d)
	}
	return devices
}

// IsLock reports whether the id belongs to the lock collection.
func (r *Registry) IsLock(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.locks[id]
	return ok
}

// IsDoorbell reports whether the id belongs to the doorbell collection.
func (r *Registry) IsDoorbell(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.doorbells[id]
	return ok
}

// Details returns a snapshot of every stored detail, including keypads.
func (r *Registry) Details() []Detail {
	r.mu.RLock()
	defer r.mu.RUnlock()

	details := make([]Detail, 0, len(r.details))
	for _, d := range r.details {
		details = append(details, d)
	}
	return details
}

// Counts returns the number of locks, doorbells, and detail snapshots.
// Used for startup logging and the stats endpoint.
func (r *Registry) Counts() (locks, doorbells, details int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locks), len(r.doorbells), len(r.details)
}
