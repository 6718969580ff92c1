package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nerrad567/keyline-core/internal/activity"
	"github.com/nerrad567/keyline-core/internal/device"
	"github.com/nerrad567/keyline-core/internal/infrastructure/config"
)

// Logger is the minimal logging interface the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Warn(msg string, args ...any)  {}

// Client talks to the vendor cloud REST API. It owns the session token and
// refreshes it transparently; callers never handle tokens directly.
//
// All methods are safe for concurrent use. Command methods never retry:
// a lock or unlock that timed out must not be silently re-issued.
type Client struct {
	http   *resty.Client
	cfg    config.BackendConfig
	logger Logger

	mu      sync.RWMutex
	session Session
}

// New creates a cloud API client. The client is unauthenticated until
// Authenticate succeeds.
func New(cfg config.BackendConfig, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("x-client-brand", cfg.Brand).
		SetRetryCount(0)

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger,
	}
}

// Authenticate establishes a session using the configured credentials.
//
// Returns:
//   - ErrAuthRequired when the credentials are rejected
//   - ErrValidationRequired when the account needs a verification step
//   - ErrUnavailable on timeout or connectivity failure
func (c *Client) Authenticate(ctx context.Context) (Session, error) {
	body := map[string]string{
		"identifier": c.cfg.Identifier,
		"password":   c.cfg.Password,
		"install_id": c.cfg.InstallID,
	}

	var result sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/session")
	if err != nil {
		return Session{}, transportError("authenticate", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return Session{}, fmt.Errorf("%w: credentials rejected", ErrAuthRequired)
	case resp.IsError():
		return Session{}, responseError(resp)
	case result.State == sessionStateRequiresValidation:
		return Session{}, ErrValidationRequired
	case result.AccessToken == "":
		return Session{}, fmt.Errorf("%w: session response carried no token", ErrAuthRequired)
	}

	session, err := c.storeSession(result)
	if err != nil {
		return Session{}, err
	}

	c.logger.Debug("authenticated with cloud api", "user_id", session.UserID)
	return session, nil
}

// RefreshAccessTokenIfNeeded refreshes the session token when it is close
// to expiry. A no-op when the token is still comfortably valid or carries
// no expiry claim.
func (c *Client) RefreshAccessTokenIfNeeded(ctx context.Context) error {
	c.mu.RLock()
	expiresAt := c.session.ExpiresAt
	c.mu.RUnlock()

	if expiresAt.IsZero() || time.Until(expiresAt) > refreshThreshold {
		return nil
	}

	var result sessionResponse
	resp, err := c.authRequest(ctx).
		SetResult(&result).
		Post("/session/refresh")
	if err != nil {
		return transportError("refresh token", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: refresh rejected", ErrAuthRequired)
	}
	if resp.IsError() {
		return responseError(resp)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("%w: refresh response carried no token", ErrAuthRequired)
	}

	session, err := c.storeSession(result)
	if err != nil {
		return err
	}

	c.logger.Debug("refreshed access token", "expires_at", session.ExpiresAt)
	return nil
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// GetUser fetches the profile of the authenticated account.
func (c *Client) GetUser(ctx context.Context) (User, error) {
	var user User
	resp, err := c.authRequest(ctx).
		SetResult(&user).
		Get("/users/me")
	if err != nil {
		return User{}, transportError("get user", err)
	}
	if err := checkResponse(resp); err != nil {
		return User{}, err
	}
	return user, nil
}

// GetOperableLocks lists the locks the account can operate.
func (c *Client) GetOperableLocks(ctx context.Context) ([]device.Device, error) {
	return c.listDevices(ctx, "/users/locks/mine", device.KindLock)
}

// GetDoorbells lists the account's doorbell cameras.
func (c *Client) GetDoorbells(ctx context.Context) ([]device.Device, error) {
	return c.listDevices(ctx, "/users/doorbells/mine", device.KindDoorbell)
}

func (c *Client) listDevices(ctx context.Context, path string, kind device.Kind) ([]device.Device, error) {
	var entries []deviceListEntry
	resp, err := c.authRequest(ctx).
		SetResult(&entries).
		Get(path)
	if err != nil {
		return nil, transportError("list devices", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	devices := make([]device.Device, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, device.Device{
			ID:      e.ID,
			Name:    e.Name,
			HouseID: e.HouseID,
			Kind:    kind,
		})
	}
	return devices, nil
}

// GetLockDetail fetches the full state of a single lock.
func (c *Client) GetLockDetail(ctx context.Context, lockID string) (*device.LockDetail, error) {
	detail := &device.LockDetail{}
	resp, err := c.authRequest(ctx).
		SetResult(detail).
		Get("/locks/" + lockID)
	if err != nil {
		return nil, transportError("get lock detail", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return detail, nil
}

// GetDoorbellDetail fetches the full state of a single doorbell.
func (c *Client) GetDoorbellDetail(ctx context.Context, doorbellID string) (*device.DoorbellDetail, error) {
	detail := &device.DoorbellDetail{}
	resp, err := c.authRequest(ctx).
		SetResult(detail).
		Get("/doorbells/" + doorbellID)
	if err != nil {
		return nil, transportError("get doorbell detail", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return detail, nil
}

// LockReturnActivities locks the device and returns the activities the
// operation generated, confirming the resulting state.
func (c *Client) LockReturnActivities(ctx context.Context, lockID string) ([]activity.Activity, error) {
	return c.operate(ctx, lockID, "lock")
}

// UnlockReturnActivities unlocks the device and returns the activities the
// operation generated.
func (c *Client) UnlockReturnActivities(ctx context.Context, lockID string) ([]activity.Activity, error) {
	return c.operate(ctx, lockID, "unlock")
}

func (c *Client) operate(ctx context.Context, lockID, op string) ([]activity.Activity, error) {
	var activities []activity.Activity
	resp, err := c.authRequest(ctx).
		SetBody(map[string]any{"operation": op, "return_activities": true}).
		SetResult(&activities).
		Put("/locks/" + lockID + "/status")
	if err != nil {
		return nil, transportError(op, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return activities, nil
}

// LockAsync issues a fire-and-forget lock command. Confirmation arrives
// later over the push channel. hyperBridge selects the low-latency command
// path on bridges that support it.
func (c *Client) LockAsync(ctx context.Context, lockID string, hyperBridge bool) error {
	return c.operateAsync(ctx, lockID, "lock_async", hyperBridge)
}

// UnlockAsync issues a fire-and-forget unlock command.
func (c *Client) UnlockAsync(ctx context.Context, lockID string, hyperBridge bool) error {
	return c.operateAsync(ctx, lockID, "unlock_async", hyperBridge)
}

// StatusAsync requests a fresh status report from the lock. The report
// arrives over the push channel rather than in the response.
func (c *Client) StatusAsync(ctx context.Context, lockID string, hyperBridge bool) error {
	return c.operateAsync(ctx, lockID, "status_async", hyperBridge)
}

func (c *Client) operateAsync(ctx context.Context, lockID, op string, hyperBridge bool) error {
	var result commandResponse
	resp, err := c.authRequest(ctx).
		SetBody(map[string]any{"hyper_bridge": hyperBridge}).
		SetResult(&result).
		Put("/locks/" + lockID + "/" + op)
	if err != nil {
		return transportError(op, err)
	}
	if err := checkResponse(resp); err != nil {
		return err
	}

	c.logger.Debug("async command accepted", "lock_id", lockID, "op", op, "status", result.Status)
	return nil
}

// GetHouseActivities fetches the most recent activities for a house,
// newest first.
func (c *Client) GetHouseActivities(ctx context.Context, houseID string, limit int) ([]activity.Activity, error) {
	var activities []activity.Activity
	resp, err := c.authRequest(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&activities).
		Get("/houses/" + houseID + "/activities")
	if err != nil {
		return nil, transportError("get house activities", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	for i := range activities {
		activities[i].Source = activity.SourcePoll
	}
	return activities, nil
}

// authRequest builds a request carrying the session token.
func (c *Client) authRequest(ctx context.Context) *resty.Request {
	c.mu.RLock()
	token := c.session.AccessToken
	c.mu.RUnlock()

	return c.http.R().
		SetContext(ctx).
		SetHeader("x-access-token", token)
}

func (c *Client) storeSession(result sessionResponse) (Session, error) {
	expiresAt, err := tokenExpiry(result.AccessToken)
	if err != nil {
		return Session{}, err
	}

	session := Session{
		AccessToken: result.AccessToken,
		UserID:      result.UserID,
		ExpiresAt:   expiresAt,
	}

	c.mu.Lock()
	if result.UserID == "" {
		// Refresh responses may omit the user id; keep the existing one.
		session.UserID = c.session.UserID
	}
	c.session = session
	c.mu.Unlock()

	return session, nil
}

// checkResponse maps a completed response to the error taxonomy.
func checkResponse(resp *resty.Response) error {
	switch {
	case !resp.IsError():
		return nil
	case resp.StatusCode() == http.StatusUnauthorized:
		return fmt.Errorf("%w: session expired", ErrAuthRequired)
	case resp.StatusCode() == http.StatusBadGateway,
		resp.StatusCode() == http.StatusServiceUnavailable,
		resp.StatusCode() == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	default:
		return responseError(resp)
	}
}

// responseError builds an *APIError from a non-2xx response body.
func responseError(resp *resty.Response) error {
	message := http.StatusText(resp.StatusCode())

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		message = body.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode(),
		Message:    message,
	}
}

// transportError classifies request-level failures. Anything that never
// produced a response is a connectivity condition.
func transportError(op string, err error) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return fmt.Errorf("%w: %s timed out: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
