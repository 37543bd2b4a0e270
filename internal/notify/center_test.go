package notify

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKind_String(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{KindInfo, "info"},
		{KindSuccess, "success"},
		{KindError, "error"},
		{Kind(42), "info"},
	}
	for _, tc := range testCases {
		if got := tc.kind.String(); got != tc.expected {
			t.Errorf("Expected %q, got %q", tc.expected, got)
		}
	}
}

func TestCenter_MultipleCoexist(t *testing.T) {
	c := NewCenter(time.Minute)
	defer c.Close()

	c.Push(KindSuccess, "saved")
	c.Push(KindError, "failed")

	active := c.Active()
	if len(active) != 2 {
		t.Fatalf("Expected 2 active notifications, got %d", len(active))
	}
	if active[0].Message != "saved" || active[1].Message != "failed" {
		t.Errorf("Expected oldest first, got %+v", active)
	}
	if active[0].ID == active[1].ID {
		t.Error("Expected distinct IDs")
	}
}

func TestCenter_AutoDismiss(t *testing.T) {
	c := NewCenter(30 * time.Millisecond)
	defer c.Close()

	c.Push(KindInfo, "hello")

	deadline := time.Now().Add(2 * time.Second)
	for len(c.Active()) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected notification to auto-dismiss")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCenter_Dismiss(t *testing.T) {
	c := NewCenter(time.Minute)
	defer c.Close()

	first := c.Push(KindInfo, "first")
	c.Push(KindInfo, "second")

	if !c.Dismiss(first) {
		t.Fatal("Expected dismiss to succeed")
	}
	if c.Dismiss(first) {
		t.Error("Expected second dismiss of the same ID to report false")
	}
	active := c.Active()
	if len(active) != 1 || active[0].Message != "second" {
		t.Errorf("Unexpected remaining notifications: %+v", active)
	}
}

func TestCenter_DismissLatest(t *testing.T) {
	c := NewCenter(time.Minute)
	defer c.Close()

	if c.DismissLatest() {
		t.Error("Expected false on empty center")
	}
	c.Push(KindInfo, "old")
	c.Push(KindInfo, "new")

	c.DismissLatest()

	active := c.Active()
	if len(active) != 1 || active[0].Message != "old" {
		t.Errorf("Expected only the old toast, got %+v", active)
	}
}

func TestCenter_OnChange(t *testing.T) {
	c := NewCenter(time.Minute)
	defer c.Close()
	var calls int32
	c.OnChange(func() { atomic.AddInt32(&calls, 1) })

	id := c.Push(KindInfo, "x")
	c.Dismiss(id)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 change callbacks, got %d", got)
	}
}

func TestNewCenter_DefaultTimeout(t *testing.T) {
	c := NewCenter(0)
	if c.timeout != DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", c.timeout)
	}
}
