// Package fileaccess opens files exclusively, retrying failed opens with a
// fixed wait between attempts.
//
// Every file the archiver touches goes through Opener.Acquire. It is the
// only place in the program where a failure is retried.
package fileaccess

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ossyrian/carc/internal/clock"
	"github.com/ossyrian/carc/internal/errdefs"
)

// Mode selects whether Acquire creates a file or opens an existing one.
type Mode int

const (
	// CreateNew fails if the file already exists.
	CreateNew Mode = iota
	// OpenExisting fails if the file does not exist.
	OpenExisting
)

func (m Mode) String() string {
	switch m {
	case CreateNew:
		return "create-new"
	case OpenExisting:
		return "open-existing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Access selects the read/write direction of the handle.
type Access int

const (
	Read Access = iota
	Write
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

func (m Mode) flags() int {
	if m == CreateNew {
		return os.O_CREATE | os.O_EXCL
	}
	return 0
}

func (a Access) flags() int {
	switch a {
	case Write:
		return os.O_WRONLY
	case ReadWrite:
		return os.O_RDWR
	default:
		return os.O_RDONLY
	}
}

// Opener opens files under a RetryPolicy.
type Opener struct {
	policy RetryPolicy
	clock  clock.Clock
	logger *slog.Logger

	// open and lock are swapped in tests to simulate transient failures.
	open func(name string, flag int, perm os.FileMode) (*os.File, error)
	lock func(f *os.File) error
}

// NewOpener returns an Opener. A nil clock uses the real clock and a nil
// logger uses slog.Default().
func NewOpener(policy RetryPolicy, clk clock.Clock, logger *slog.Logger) (*Opener, error) {
	if policy.Attempts < MinAttempts {
		return nil, errdefs.Invalid("retry attempts", policy.Attempts, "must be at least 1")
	}
	if policy.Wait < 0 {
		return nil, errdefs.Invalid("retry wait", policy.Wait, "cannot be negative")
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		policy: policy,
		clock:  clk,
		logger: logger,
		open:   os.OpenFile,
		lock:   lockExclusive,
	}, nil
}

// Acquire opens path with the given mode and access and takes an exclusive
// lock on it. On failure it waits the policy's Wait and tries again, up
// to Attempts tries in total. Each failed try is logged as a warning.
// When every try fails the result is an *errdefs.IOError.
func (o *Opener) Acquire(path string, mode Mode, access Access) (*os.File, error) {
	var lastErr error

	for attempt := 1; attempt <= o.policy.Attempts; attempt++ {
		f, err := o.tryOpen(path, mode, access)
		if err == nil {
			return f, nil
		}
		lastErr = err

		o.logger.Warn("failed to open file",
			"path", path,
			"mode", mode.String(),
			"access", access.String(),
			"attempt", attempt,
			"max_attempts", o.policy.Attempts,
			"error", err,
		)

		if attempt < o.policy.Attempts {
			o.logger.Warn("waiting until next attempt", "wait", o.policy.Wait)
			o.clock.Sleep(o.policy.Wait)
		}
	}

	return nil, &errdefs.IOError{
		Path:     path,
		Mode:     mode.String(),
		Attempts: o.policy.Attempts,
		Err:      lastErr,
	}
}

func (o *Opener) tryOpen(path string, mode Mode, access Access) (*os.File, error) {
	f, err := o.open(path, mode.flags()|access.flags(), 0o644)
	if err != nil {
		return nil, err
	}
	if err := o.lock(f); err != nil {
		_ = f.Close()
		// a file this try created would make every later CreateNew fail
		if mode == CreateNew {
			_ = os.Remove(path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return f, nil
}
