//go:build unix

package fileaccess

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireIsExclusive(t *testing.T) {
	o, clk := newTestOpener(t, RetryPolicy{Attempts: 2, Wait: time.Second})
	path := filepath.Join(t.TempDir(), "locked.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	held, err := o.Acquire(path, OpenExisting, ReadWrite)
	if err != nil {
		t.Fatalf("first Acquire() failed: %v", err)
	}

	if f, err := o.Acquire(path, OpenExisting, Read); err == nil {
		f.Close()
		t.Fatal("second Acquire() succeeded while the lock was held")
	}
	if got := len(clk.Sleeps()); got != 1 {
		t.Errorf("slept %d times, want 1", got)
	}

	held.Close()

	f, err := o.Acquire(path, OpenExisting, Read)
	if err != nil {
		t.Fatalf("Acquire() after release failed: %v", err)
	}
	f.Close()
}
