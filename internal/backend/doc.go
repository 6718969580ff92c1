// Package backend implements the client for the vendor cloud REST API.
//
// The client owns the session lifecycle: Authenticate establishes a session,
// and RefreshAccessTokenIfNeeded keeps the access token fresh by inspecting
// its expiry claim locally. Device listings, detail snapshots, lock commands,
// and house activity logs are all fetched through it.
//
// Two command styles exist side by side. The synchronous style
// (LockReturnActivities, UnlockReturnActivities) blocks until the backend
// confirms the operation and returns the activities it generated. The
// asynchronous style (LockAsync, UnlockAsync, StatusAsync) returns as soon
// as the command is accepted; the outcome arrives later over the push
// channel. Commands are never retried internally.
//
// Failures are classified into a small taxonomy callers can branch on:
// ErrAuthRequired, ErrValidationRequired, and ErrUnavailable as sentinels,
// with everything else surfaced as an *APIError carrying the HTTP status.
package backend
