package activity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/keyline-core/internal/device"
)

// setupActivityTestDB creates an in-memory SQLite database with the activities table.
func setupActivityTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE activities (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			house_id TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			source TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			lock_status TEXT NOT NULL DEFAULT '',
			door_state TEXT NOT NULL DEFAULT '',
			operated_by TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT ''
		) STRICT;
		CREATE INDEX idx_activities_device ON activities(device_id, occurred_at DESC);
		CREATE INDEX idx_activities_time ON activities(occurred_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteRepository_RecordAndRecent(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, act := range []Activity{
		{ID: "act-1", DeviceID: "lock-1", HouseID: "house-1", Kind: KindLockOperation, Source: SourcePush, At: base, LockStatus: device.LockStatusLocked},
		{ID: "act-2", DeviceID: "lock-1", HouseID: "house-1", Kind: KindDoorOperation, Source: SourcePoll, At: base.Add(time.Minute), DoorState: device.DoorStateOpen},
		{ID: "act-3", DeviceID: "lock-2", HouseID: "house-1", Kind: KindLockOperation, Source: SourcePush, At: base, LockStatus: device.LockStatusUnlocked},
	} {
		if err := repo.Record(ctx, act); err != nil {
			t.Fatalf("Record() #%d error = %v", i, err)
		}
	}

	got, err := repo.RecentByDevice(ctx, "lock-1", 10)
	if err != nil {
		t.Fatalf("RecentByDevice() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d activities, want 2", len(got))
	}
	if got[0].ID != "act-2" {
		t.Errorf("newest first: got[0].ID = %q, want act-2", got[0].ID)
	}
	if got[0].DoorState != device.DoorStateOpen {
		t.Errorf("DoorState = %q, want open", got[0].DoorState)
	}
	if got[1].LockStatus != device.LockStatusLocked {
		t.Errorf("LockStatus = %q, want locked", got[1].LockStatus)
	}
	if !got[1].At.Equal(base) {
		t.Errorf("At = %v, want %v", got[1].At, base)
	}
}

func TestSQLiteRepository_RecordDuplicateIsIgnored(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	act := Activity{ID: "act-1", DeviceID: "lock-1", Kind: KindLockOperation, Source: SourcePush, At: time.Now()}
	if err := repo.Record(ctx, act); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, act); err != nil {
		t.Fatalf("Record() duplicate error = %v", err)
	}

	got, err := repo.RecentByDevice(ctx, "lock-1", 10)
	if err != nil {
		t.Fatalf("RecentByDevice() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d activities after duplicate insert, want 1", len(got))
	}
}

func TestSQLiteRepository_RecordValidation(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Record(ctx, Activity{DeviceID: "lock-1"}); err == nil {
		t.Error("Record() accepted activity without id")
	}
	if err := repo.Record(ctx, Activity{ID: "act-1"}); err == nil {
		t.Error("Record() accepted activity without device id")
	}
}

func TestSQLiteRepository_Prune(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	old := Activity{ID: "old", DeviceID: "lock-1", Kind: KindLockOperation, Source: SourcePoll, At: time.Now().Add(-48 * time.Hour)}
	fresh := Activity{ID: "fresh", DeviceID: "lock-1", Kind: KindLockOperation, Source: SourcePush, At: time.Now()}

	if err := repo.Record(ctx, old); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, fresh); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	deleted, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d rows, want 1", deleted)
	}

	got, err := repo.RecentByDevice(ctx, "lock-1", 10)
	if err != nil {
		t.Fatalf("RecentByDevice() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("remaining activities = %v, want only fresh", got)
	}
}

func TestSQLiteRepository_PruneValidation(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewSQLiteRepository(db)

	if _, err := repo.Prune(context.Background(), 0); err == nil {
		t.Error("Prune() accepted non-positive retention")
	}
}
