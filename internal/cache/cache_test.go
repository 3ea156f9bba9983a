package cache

import (
	"context"
	"testing"
	"time"

	"ctalens/internal/model"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	key := Key{URL: "https://example.com", Device: model.DeviceDesktop, PrimaryElementID: "cta"}

	if _, ok, err := m.Get(ctx, key); err != nil || ok {
		t.Fatalf("empty cache should miss, got ok=%v err=%v", ok, err)
	}

	if err := m.Put(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	val, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "payload" {
		t.Fatalf("cached value = %q, want payload", val)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	key := Key{URL: "u", Device: model.DeviceMobile, PrimaryElementID: "p"}

	if err := m.Put(ctx, key, []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, key); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestKeyDistinguishesDeviceAndPrimary(t *testing.T) {
	a := Key{URL: "u", Device: model.DeviceDesktop, PrimaryElementID: "x"}
	b := Key{URL: "u", Device: model.DeviceMobile, PrimaryElementID: "x"}
	c := Key{URL: "u", Device: model.DeviceDesktop, PrimaryElementID: "y"}

	if a.String() == b.String() || a.String() == c.String() {
		t.Fatalf("cache keys must include device and primary element: %q %q %q", a, b, c)
	}
}
