package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/keyline-core/internal/device"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// SQLiteRepository persists accepted activities in the activities table.
//
// The log is an audit trail for the host API; acceptance ordering is handled
// upstream by Stream, so the repository stores whatever it is given.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite activity repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts an accepted activity.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - act: Activity to persist; ID and DeviceID are required
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Record(ctx context.Context, act Activity) error {
	if act.ID == "" {
		return fmt.Errorf("activity id is required")
	}
	if act.DeviceID == "" {
		return fmt.Errorf("device id is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO activities
		 (id, device_id, house_id, kind, source, occurred_at, lock_status, door_state, operated_by, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		act.ID,
		act.DeviceID,
		act.HouseID,
		string(act.Kind),
		string(act.Source),
		act.At.UTC().Format(time.RFC3339),
		string(act.LockStatus),
		string(act.DoorState),
		act.OperatedBy,
		act.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}

	return nil
}

// RecentByDevice returns recent activities for a device, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Activity: Activities ordered by occurred_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) RecentByDevice(ctx context.Context, deviceID string, limit int) ([]Activity, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, house_id, kind, source, occurred_at, lock_status, door_state, operated_by, image_url
		 FROM activities
		 WHERE device_id = ?
		 ORDER BY occurred_at DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0, limit)
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, act)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}

	return activities, nil
}

// Prune deletes activities older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM activities WHERE occurred_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting activities: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// scanActivity reads one row into an Activity.
func scanActivity(rows *sql.Rows) (Activity, error) {
	var act Activity
	var kind, source, lockStatus, doorState, occurredAt string

	if err := rows.Scan(
		&act.ID,
		&act.DeviceID,
		&act.HouseID,
		&kind,
		&source,
		&occurredAt,
		&lockStatus,
		&doorState,
		&act.OperatedBy,
		&act.ImageURL,
	); err != nil {
		return Activity{}, fmt.Errorf("scanning activity: %w", err)
	}

	act.Kind = Kind(kind)
	act.Source = Source(source)
	act.LockStatus = device.LockStatus(lockStatus)
	act.DoorState = device.DoorState(doorState)

	at, err := time.Parse(time.RFC3339, occurredAt)
	if err != nil {
		return Activity{}, fmt.Errorf("parsing occurred_at: %w", err)
	}
	act.At = at

	return act, nil
}
