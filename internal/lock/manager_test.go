package lock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/entity"
	"github.com/nerrad567/sovd-sim/internal/event"
)

type channelRecorder struct {
	mu       sync.Mutex
	channels []string
}

func (r *channelRecorder) Broadcast(channel string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
}

func (r *channelRecorder) count(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.channels {
		if c == channel {
			n++
		}
	}
	return n
}

func setupManager(t *testing.T) (*Manager, *clock.Manual, *channelRecorder) {
	t.Helper()
	reg, err := entity.NewRegistry([]entity.Entity{
		{ID: "vehicle", Type: entity.TypeVehicle},
		{ID: "doors", Type: entity.TypeComponent, Parent: "vehicle"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &channelRecorder{}
	m := NewManager(reg, clk, 0)
	m.SetNotifier(rec)
	return m, clk, rec
}

// ─── Acquire / Validate ────────────────────────────────────────────────────

func TestValidateWithinTTLWindow(t *testing.T) {
	m, clk, _ := setupManager(t)

	lease, err := m.Acquire("doors", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if lease.Token == "" || lease.ID == "" || lease.Token == lease.ID {
		t.Fatalf("lease ids not distinct: %+v", lease)
	}

	clk.Advance(9 * time.Second)
	if err := m.Validate("doors", lease.Token); err != nil {
		t.Errorf("Validate() at t+9s error = %v", err)
	}

	clk.Advance(time.Second)
	if err := m.Validate("doors", lease.Token); !errors.Is(err, ErrLockRequired) {
		t.Errorf("Validate() at t+10s error = %v, want ErrLockRequired", err)
	}
}

func TestAcquireInvalidatesPreviousToken(t *testing.T) {
	m, _, rec := setupManager(t)

	first, _ := m.Acquire("doors", time.Minute)
	second, _ := m.Acquire("doors", time.Minute)

	if first.Token == second.Token {
		t.Fatal("tokens should differ between acquisitions")
	}
	if err := m.Validate("doors", first.Token); !errors.Is(err, ErrLockRequired) {
		t.Errorf("old token error = %v, want ErrLockRequired", err)
	}
	if err := m.Validate("doors", second.Token); err != nil {
		t.Errorf("new token error = %v", err)
	}
	if got := rec.count(event.ChannelLockAcquired); got != 2 {
		t.Errorf("lock.acquired events = %d, want 2", got)
	}
	if got := rec.count(event.ChannelLockRejected); got != 1 {
		t.Errorf("lock.rejected events = %d, want 1", got)
	}
}

func TestValidateRejectsMissingAndWrongTokens(t *testing.T) {
	m, _, _ := setupManager(t)

	if err := m.Validate("doors", ""); !errors.Is(err, ErrLockRequired) {
		t.Errorf("no lease: error = %v, want ErrLockRequired", err)
	}

	m.Acquire("doors", time.Minute)
	for _, token := range []string{"", "not-a-token"} {
		if err := m.Validate("doors", token); !errors.Is(err, ErrLockRequired) {
			t.Errorf("token %q: error = %v, want ErrLockRequired", token, err)
		}
	}
}

func TestLeasesAreScopedPerEntity(t *testing.T) {
	m, _, _ := setupManager(t)

	lease, _ := m.Acquire("doors", time.Minute)
	if err := m.Validate("vehicle", lease.Token); !errors.Is(err, ErrLockRequired) {
		t.Errorf("cross-entity validate error = %v, want ErrLockRequired", err)
	}
}

func TestAcquireValidation(t *testing.T) {
	m, _, _ := setupManager(t)

	tests := []struct {
		name   string
		entity string
		ttl    time.Duration
		want   error
	}{
		{"unknown entity", "trunk", time.Minute, entity.ErrEntityNotFound},
		{"zero ttl", "doors", 0, ErrInvalidTTL},
		{"sub-second ttl", "doors", 500 * time.Millisecond, ErrInvalidTTL},
		{"above max", "doors", 2 * time.Hour, ErrInvalidTTL},
		{"at max", "doors", time.Hour, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Acquire(tc.entity, tc.ttl)
			if tc.want == nil {
				if err != nil {
					t.Errorf("Acquire() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("Acquire() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAcquireSecondsRejectsOverflow(t *testing.T) {
	m, _, _ := setupManager(t)

	tests := []struct {
		name    string
		entity  string
		seconds int64
		want    error
	}{
		{"unknown entity", "trunk", 60, entity.ErrEntityNotFound},
		{"unknown entity out of range", "trunk", 0, entity.ErrEntityNotFound},
		{"zero", "doors", 0, ErrInvalidTTL},
		{"negative", "doors", -1, ErrInvalidTTL},
		{"above max", "doors", 3601, ErrInvalidTTL},
		{"wraps to one second as a Duration", "doors", 1<<55 + 1, ErrInvalidTTL},
		{"at max", "doors", 3600, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lease, err := m.AcquireSeconds(tc.entity, tc.seconds)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("AcquireSeconds() error = %v", err)
				}
				if got := lease.ExpiresAt.Sub(lease.AcquiredAt); got != time.Hour {
					t.Errorf("lease ttl = %s, want 1h", got)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("AcquireSeconds() error = %v, want %v", err, tc.want)
			}
		})
	}
}

// ─── Release / Get ─────────────────────────────────────────────────────────

func TestRelease(t *testing.T) {
	m, _, rec := setupManager(t)
	lease, _ := m.Acquire("doors", time.Minute)

	if err := m.Release("doors", "wrong"); !errors.Is(err, ErrLockRequired) {
		t.Fatalf("Release(wrong) error = %v, want ErrLockRequired", err)
	}
	if err := m.Release("doors", lease.Token); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, ok, _ := m.Get("doors"); ok {
		t.Error("lease still present after release")
	}
	if err := m.Validate("doors", lease.Token); !errors.Is(err, ErrLockRequired) {
		t.Errorf("released token error = %v, want ErrLockRequired", err)
	}
	if got := rec.count(event.ChannelLockReleased); got != 1 {
		t.Errorf("lock.released events = %d, want 1", got)
	}
}

func TestGetReportsRemainingAndExpires(t *testing.T) {
	m, clk, _ := setupManager(t)

	if _, ok, err := m.Get("doors"); ok || err != nil {
		t.Fatalf("Get() before acquire = %v, %v", ok, err)
	}

	lease, _ := m.Acquire("doors", 30*time.Second)
	clk.Advance(10 * time.Second)

	info, ok, err := m.Get("doors")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if info.ID != lease.ID || info.RemainingSeconds != 20 {
		t.Errorf("Get() = %+v, want id %s remaining 20", info, lease.ID)
	}

	clk.Advance(20 * time.Second)
	if _, ok, _ := m.Get("doors"); ok {
		t.Error("expired lease still reported")
	}

	if _, _, err := m.Get("trunk"); !errors.Is(err, entity.ErrEntityNotFound) {
		t.Errorf("Get(trunk) error = %v, want ErrEntityNotFound", err)
	}
}
