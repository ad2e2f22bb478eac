package bloom

import (
	"fmt"
	"testing"
)

func TestAddAndContains(t *testing.T) {
	f := New(1000, 0.01)

	for _, key := range []string{"foo", "bar", "baz"} {
		if !f.Add(key, true) {
			t.Errorf("Add(%q) = false, want true", key)
		}
	}
	for _, key := range []string{"foo", "bar", "baz"} {
		if !f.Contains(key) {
			t.Errorf("Contains(%q) = false after Add", key)
		}
	}
	if f.Contains("quux") {
		t.Error("Contains(\"quux\") = true, key was never added")
	}
}

func TestAddChecksDuplicates(t *testing.T) {
	f := New(1000, 0.01)

	if !f.Add("foo", true) {
		t.Fatal("first Add(\"foo\") = false, want true")
	}
	if f.Add("foo", true) {
		t.Error("second Add(\"foo\") with check = true, want false")
	}
	if f.count != 1 {
		t.Errorf("count = %d after duplicate add, want 1", f.count)
	}

	// Without check the insert always lands.
	if !f.Add("foo", false) {
		t.Error("Add(\"foo\") without check = false, want true")
	}
	if f.count != 2 {
		t.Errorf("count = %d, want 2", f.count)
	}
}

func TestGrowth(t *testing.T) {
	f := New(100, 0.01)

	for i := range 99 {
		f.Add(fmt.Sprintf("key-%d", i), false)
	}
	if got := len(f.subs); got != 1 {
		t.Fatalf("sub-filters = %d after 99 adds, want 1", got)
	}

	f.Add("key-99", false)
	if got := len(f.subs); got != 2 {
		t.Fatalf("sub-filters = %d after 100 adds, want 2", got)
	}

	for i := 100; i < 1000; i++ {
		f.Add(fmt.Sprintf("key-%d", i), false)
	}
	if got := len(f.subs); got != 3 {
		t.Errorf("sub-filters = %d after 1000 adds, want 3", got)
	}
	if f.capacity != 1600 {
		t.Errorf("capacity = %d after two growths, want 1600", f.capacity)
	}

	// Chained filters never lose keys.
	for i := range 1000 {
		if key := fmt.Sprintf("key-%d", i); !f.Contains(key) {
			t.Errorf("Contains(%q) = false after growth", key)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	f := New(0, 0)
	if f.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", f.capacity, DefaultCapacity)
	}
	if f.errorRate != DefaultErrorRate {
		t.Errorf("errorRate = %g, want %g", f.errorRate, DefaultErrorRate)
	}

	f = New(-5, 1.5)
	if f.capacity != DefaultCapacity || f.errorRate != DefaultErrorRate {
		t.Errorf("New(-5, 1.5) = capacity %d errorRate %g, want defaults", f.capacity, f.errorRate)
	}
}
