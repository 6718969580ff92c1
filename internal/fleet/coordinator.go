package fleet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/keyline-core/internal/activity"
	"github.com/nerrad567/keyline-core/internal/backend"
	"github.com/nerrad567/keyline-core/internal/device"
	"github.com/nerrad567/keyline-core/internal/discovery"
	"github.com/nerrad567/keyline-core/internal/push"
)

// recordTimeout bounds a single activity log write.
const recordTimeout = 5 * time.Second

// Backend is everything the coordinator needs from the cloud API client.
type Backend interface {
	DetailFetcher
	CommandBackend
	activity.HouseActivityFetcher

	Authenticate(ctx context.Context) (backend.Session, error)
	RefreshAccessTokenIfNeeded(ctx context.Context) error
	GetUser(ctx context.Context) (backend.User, error)
	GetOperableLocks(ctx context.Context) ([]device.Device, error)
	GetDoorbells(ctx context.Context) ([]device.Device, error)
}

// PushChannel is the slice of the push client the coordinator needs.
type PushChannel interface {
	IsConnected() bool
	Listen(brand, userID string, handler push.MessageHandler) error
	StopListening(brand, userID string) error
}

// ActivityRecorder persists accepted activities. Implemented by
// activity.SQLiteRepository.
type ActivityRecorder interface {
	Record(ctx context.Context, act activity.Activity) error
}

// CoordinatorConfig carries the coordinator's dependencies and tuning.
type CoordinatorConfig struct {
	Backend  Backend
	Push     PushChannel
	Registry *device.Registry

	// Discovery receives offline-key credentials found during refreshes.
	// Optional.
	Discovery *discovery.Publisher

	// Recorder persists accepted activities. Optional.
	Recorder ActivityRecorder

	// OnUpdate is invoked whenever a device's snapshot changes. Optional.
	OnUpdate UpdateFunc

	// Brand selects the push channel namespace.
	Brand string

	// DetailRefreshInterval is the per-device poll interval.
	DetailRefreshInterval time.Duration

	// HouseRefreshDebounce coalesces push-triggered activity log polls.
	HouseRefreshDebounce time.Duration

	Logger Logger
}

// Coordinator owns the engine lifecycle: hydrate the fleet, keep it fresh,
// and tear everything down.
//
// Setup is retryable: a connectivity failure (backend.ErrUnavailable) leaves
// the coordinator unstarted and Setup can simply be called again. Credential
// failures (backend.ErrAuthRequired, backend.ErrValidationRequired) are
// fatal and need operator action. Stop is idempotent and safe to call even
// when Setup never succeeded.
type Coordinator struct {
	cfg      CoordinatorConfig
	registry *device.Registry
	logger   Logger

	stream     *activity.Stream
	refresher  *Refresher
	dispatcher *Dispatcher
	scheduler  *Scheduler

	onUpdate UpdateFunc

	mu      sync.Mutex
	started bool
	stopped bool
	userID  string

	// houses is the set of house ids seen at hydration. Fixed after Setup;
	// devices added to a new house need a full re-setup to be followed.
	houses map[string]struct{}

	wg sync.WaitGroup
}

// NewCoordinator wires up a coordinator and its sub-components.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.OnUpdate == nil {
		cfg.OnUpdate = func(string) {}
	}

	c := &Coordinator{
		cfg:      cfg,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		onUpdate: cfg.OnUpdate,
	}

	c.stream = activity.NewStream(cfg.Backend, cfg.HouseRefreshDebounce, c.handleAccepted, cfg.Logger)
	c.refresher = NewRefresher(cfg.Registry, cfg.Backend, c.pushConnected, cfg.Discovery, cfg.OnUpdate, cfg.Logger)
	c.dispatcher = NewDispatcher(cfg.Backend, cfg.Registry, c.stream, cfg.Logger)
	c.scheduler = NewScheduler(cfg.Logger)

	return c
}

// Dispatcher returns the command dispatcher for the host API.
func (c *Coordinator) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Refresher returns the detail refresher for the host API.
func (c *Coordinator) Refresher() *Refresher {
	return c.refresher
}

// Setup brings the engine online:
//
//  1. Authenticate and remember the account's push identity
//  2. Hydrate the registry from the bulk device listings
//  3. Fetch an initial detail snapshot for every device
//  4. Prune devices that cannot be operated
//  5. Open the push channel
//  6. Subscribe every surviving device to scheduled refreshes
//  7. Nudge every bridged lock for a fresh status report
//
// Errors from steps 1-2 abort setup with the backend's taxonomy intact so
// the caller can decide between retry and giving up. From step 3 onward,
// per-device failures are contained and logged.
func (c *Coordinator) Setup(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if c.stopped {
		c.mu.Unlock()
		return ErrNotStarted
	}
	c.mu.Unlock()

	session, err := c.cfg.Backend.Authenticate(ctx)
	if err != nil {
		return err
	}

	user, err := c.cfg.Backend.GetUser(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("account verified", "user_id", session.UserID, "name", user.FirstName)

	locks, err := c.cfg.Backend.GetOperableLocks(ctx)
	if err != nil {
		return err
	}
	doorbells, err := c.cfg.Backend.GetDoorbells(ctx)
	if err != nil {
		return err
	}

	houses := make(map[string]struct{})
	for _, d := range locks {
		c.registry.AddDevice(d)
		houses[d.HouseID] = struct{}{}
	}
	for _, d := range doorbells {
		c.registry.AddDevice(d)
		houses[d.HouseID] = struct{}{}
	}
	delete(houses, "")

	if err := c.refresher.RefreshAll(ctx); err != nil {
		return err
	}

	PruneInoperative(c.registry, c.logger)

	if c.cfg.Push != nil {
		if err := c.cfg.Push.Listen(c.cfg.Brand, session.UserID, c.HandlePushMessage); err != nil {
			// Polling still works without push; degrade rather than fail.
			c.logger.Warn("push channel unavailable, relying on polling", "error", err)
		}
	}

	for _, d := range append(c.registry.Locks(), c.registry.Doorbells()...) {
		c.subscribeDevice(d.ID)
	}

	c.wakeBridgedLocks()

	c.mu.Lock()
	c.started = true
	c.userID = session.UserID
	c.houses = houses
	c.mu.Unlock()

	lockCount, doorbellCount, _ := c.registry.Counts()
	c.logger.Info("fleet online",
		"locks", lockCount,
		"doorbells", doorbellCount,
		"user_id", session.UserID,
	)
	return nil
}

// Stop tears the engine down: scheduled refreshes, the debounced activity
// polls, and the push subscription. Idempotent, and safe before Setup.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	userID := c.userID
	c.started = false
	c.mu.Unlock()

	c.scheduler.Stop()
	c.stream.Stop()

	if started && c.cfg.Push != nil {
		if err := c.cfg.Push.StopListening(c.cfg.Brand, userID); err != nil && !errors.Is(err, push.ErrNotConnected) {
			c.logger.Warn("push unsubscribe failed", "error", err)
		}
	}

	c.wg.Wait()
	c.logger.Info("fleet offline")
}

// HandlePushMessage processes one push channel delivery. Exposed as the
// push.MessageHandler wired in during Setup.
func (c *Coordinator) HandlePushMessage(msg push.Message) error {
	act, err := activity.Decode(msg.DeviceID, msg.At, msg.Payload)
	if err != nil {
		return err
	}

	accepted := c.stream.Accept(act)
	c.logger.Debug("push message processed",
		"device_id", act.DeviceID,
		"kind", act.Kind,
		"accepted", accepted,
	)

	// A push event is a hint that more may have happened in the house than
	// the single message carries; poll the activity log after the debounce.
	houseID := act.HouseID
	if houseID == "" {
		if d, ok := c.registry.Device(act.DeviceID); ok {
			houseID = d.HouseID
		}
	}
	if c.knownHouse(houseID) {
		c.stream.ScheduleHouseRefresh(houseID)
	}

	return nil
}

// knownHouse reports whether the house was part of the hydration set. The
// set is fixed at Setup, so events for houses added since are ignored until
// the engine is set up again.
func (c *Coordinator) knownHouse(houseID string) bool {
	if houseID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.houses[houseID]
	return ok
}

// handleAccepted folds a newly accepted activity into the registry and the
// audit log. Runs on whichever goroutine accepted the activity.
func (c *Coordinator) handleAccepted(act activity.Activity) {
	if c.cfg.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := c.cfg.Recorder.Record(ctx, act); err != nil {
			c.logger.Warn("activity record failed", "activity_id", act.ID, "error", err)
		}
		cancel()
	}

	current, err := c.registry.Detail(act.DeviceID)
	if err != nil {
		return
	}

	// Copy-on-write: readers of the stored snapshot never observe a
	// half-applied update.
	var changed bool
	switch d := current.(type) {
	case *device.LockDetail:
		clone := d.Clone()
		if changed = activity.ApplyToDetail(clone, act); changed {
			c.registry.UpsertDetail(clone)
		}
	case *device.DoorbellDetail:
		clone := d.Clone()
		if changed = activity.ApplyToDetail(clone, act); changed {
			c.registry.UpsertDetail(clone)
		}
	}

	if changed {
		c.onUpdate(act.DeviceID)
	}
}

// subscribeDevice registers a device with the refresh scheduler.
func (c *Coordinator) subscribeDevice(deviceID string) {
	c.scheduler.Subscribe(deviceID, c.cfg.DetailRefreshInterval, func(ctx context.Context) {
		if err := c.cfg.Backend.RefreshAccessTokenIfNeeded(ctx); err != nil {
			c.logger.Warn("access token refresh failed", "error", err)
		}

		if err := c.refresher.RefreshOne(ctx, deviceID); err != nil {
			c.logger.Warn("scheduled refresh failed", "device_id", deviceID, "error", err)
		}
	})
}

// wakeBridgedLocks asks every bridged lock for a fresh status report so the
// push channel starts with current state. Fire-and-forget; only unexpected
// failures are worth logging.
func (c *Coordinator) wakeBridgedLocks() {
	for _, d := range c.registry.Locks() {
		detail, err := c.registry.Detail(d.ID)
		if err != nil {
			continue
		}
		lock, ok := detail.(*device.LockDetail)
		if !ok || lock.Bridge == nil {
			continue
		}

		lockID := d.ID
		hyper := lock.Bridge.HyperBridge

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			err := c.cfg.Backend.StatusAsync(ctx, lockID, hyper)
			if err == nil || backend.IsUnavailable(err) {
				return
			}
			if _, expected := backend.AsAPIError(err); expected {
				return
			}
			c.logger.Error("initial status wake failed", "device_id", lockID, "error", err)
		}()
	}
}

// pushConnected reports whether the push channel is live.
func (c *Coordinator) pushConnected() bool {
	return c.cfg.Push != nil && c.cfg.Push.IsConnected()
}
