package audit

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/sovd-sim/internal/infrastructure/database"
	"github.com/nerrad567/sovd-sim/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// ─── Create ─────────────────────────────────────────────────────────

func TestCreateGeneratesIDAndTimestamp(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Entry{Action: "lock.acquired", EntityID: "engine"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == "" {
		t.Error("Create() left ID empty")
	}
	if e.CreatedAt.IsZero() {
		t.Error("Create() left CreatedAt zero")
	}
}

func TestCreateRoundTripsDetails(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &Entry{
		Action:   "resource.written",
		EntityID: "doors",
		Details:  map[string]any{"resource": "locked", "value": false},
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(res.Entries))
	}
	got := res.Entries[0]
	if got.Details["resource"] != "locked" || got.Details["value"] != false {
		t.Errorf("Details = %v", got.Details)
	}
	if got.EntityID != "doors" {
		t.Errorf("EntityID = %q, want doors", got.EntityID)
	}
}

// ─── List ───────────────────────────────────────────────────────────

func TestListFiltersAndOrders(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Action: "lock.acquired", EntityID: "engine"},
		{Action: "operation.started", EntityID: "engine"},
		{Action: "lock.acquired", EntityID: "lights"},
		{Action: "mode.changed", EntityID: "vehicle"},
	}
	for i := range seed {
		seed[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		filter     Filter
		wantTotal  int
		wantFirst  string
		wantLength int
	}{
		{"all newest first", Filter{}, 4, "mode.changed", 4},
		{"by entity", Filter{EntityID: "engine"}, 2, "operation.started", 2},
		{"by action", Filter{Action: "lock.acquired"}, 2, "lock.acquired", 2},
		{"both", Filter{Action: "lock.acquired", EntityID: "lights"}, 1, "lock.acquired", 1},
		{"paged", Filter{Limit: 1, Offset: 1}, 4, "lock.acquired", 1},
		{"no match", Filter{EntityID: "brakes"}, 0, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if len(res.Entries) != tt.wantLength {
				t.Fatalf("len(Entries) = %d, want %d", len(res.Entries), tt.wantLength)
			}
			if tt.wantLength > 0 && res.Entries[0].Action != tt.wantFirst {
				t.Errorf("first action = %q, want %q", res.Entries[0].Action, tt.wantFirst)
			}
		})
	}
}

func TestListClampsLimit(t *testing.T) {
	repo := openTestRepo(t)

	res, err := repo.List(context.Background(), Filter{Limit: 10_000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != MaxLimit {
		t.Errorf("Limit = %d, want %d", res.Limit, MaxLimit)
	}
	if res.Offset != 0 {
		t.Errorf("Offset = %d, want 0", res.Offset)
	}
	if res.Entries == nil {
		t.Error("Entries should be an empty slice, not nil")
	}
}
