package backend

import "time"

// Session is an authenticated cloud API session.
type Session struct {
	// AccessToken is the bearer token sent on every authenticated request.
	AccessToken string `json:"access_token"`

	// UserID identifies the authenticated account. Used as the push channel
	// subscription key.
	UserID string `json:"user_id"`

	// ExpiresAt is when the access token stops being accepted, parsed from
	// the token's own expiry claim. Zero when the token carried no claim.
	ExpiresAt time.Time `json:"expires_at"`
}

// User is the account profile behind a session.
type User struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// sessionResponse is the wire shape of POST /session and /session/refresh.
type sessionResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	State       string `json:"state"`
}

// deviceListEntry is one row of the account device listings.
type deviceListEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HouseID string `json:"house_id"`
}

// commandResponse is the acknowledgement body of the fire-and-forget
// command endpoints.
type commandResponse struct {
	Status string `json:"status"`
}

// verification states the session endpoint can report instead of a token.
const sessionStateRequiresValidation = "requires_validation"
