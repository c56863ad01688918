package cache

import (
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	if err := m.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := m.Get("k")
	if !found {
		t.Fatal("expected hit")
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestMemory_MissAndDelete(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	if _, found := m.Get("absent"); found {
		t.Error("expected miss for absent key")
	}

	m.Set("k", []byte("v"), time.Minute)
	if err := m.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := m.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	m.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := m.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestMemory_Overwrite(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	m.Set("k", []byte("first"), time.Minute)
	m.Set("k", []byte("second"), time.Minute)

	got, _ := m.Get("k")
	if string(got) != "second" {
		t.Errorf("expected last write to win, got %q", got)
	}
}
