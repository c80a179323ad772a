// Package lockfile serializes snapshot writes across independent OS processes
// sharing one portfolio directory.
//
// The lock marker is a JSON file recording the owner token and acquisition
// time. A flock-ed sidecar file guards marker transitions so two processes
// never race a read-modify-write on the marker itself. A marker older than
// the staleness window is presumed abandoned by a crashed holder and may be
// broken by a waiting acquirer.
package lockfile

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/elemdex/elemdex/internal/errors"
)

const (
	// StalenessWindow is how old a marker must be before a waiting
	// acquirer may break it.
	StalenessWindow = 30 * time.Second

	// Retry backoff while the lock is contended.
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 500 * time.Millisecond
)

// Handle represents a held lock.
type Handle struct {
	// Path is the marker file path.
	Path string `json:"path"`

	// Owner is the process-distinguishing token that acquired the lock.
	Owner string `json:"owner"`

	// AcquiredAt is when the lock was acquired.
	AcquiredAt time.Time `json:"acquired_at"`
}

// marker is the on-disk JSON representation of a held lock.
type marker struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Locker acquires and releases the cross-process lock for one marker path.
type Locker struct {
	path   string
	owner  string
	logger *slog.Logger
}

// New creates a Locker for the marker at path.
func New(path string, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		path:   path,
		owner:  ownerToken(),
		logger: logger,
	}
}

// Owner returns this process's lock owner token.
func (l *Locker) Owner() string {
	return l.owner
}

// Acquire attempts to take the lock, retrying with jittered backoff until
// timeout. On expiry it fails with a distinguishable lock-timeout error;
// callers fall back to their last good in-memory state rather than blocking.
func (l *Locker) Acquire(timeout time.Duration) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, errors.IOError("failed to create lock directory", err)
	}

	handle, acquired, err := l.tryAcquire()
	if err != nil || acquired {
		return handle, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// The context deadline is what actually bounds the wait; the attempt
	// budget only needs to outlast it.
	retryCfg := errors.RetryConfig{
		MaxRetries:   2 + int(timeout/initialBackoff)*2,
		InitialDelay: initialBackoff,
		MaxDelay:     maxBackoff,
		Multiplier:   2.0,
		Jitter:       true,
	}

	var hardErr error
	retryErr := errors.Retry(ctx, retryCfg, func() error {
		h, ok, err := l.tryAcquire()
		if err != nil {
			// Not contention; surface it instead of retrying.
			hardErr = err
			return nil
		}
		if !ok {
			return errors.New(errors.ErrCodeLockHeld, "lock held by another process", nil)
		}
		handle = h
		return nil
	})
	if hardErr != nil {
		return nil, hardErr
	}
	if retryErr != nil {
		return nil, errors.LockTimeoutError(
			fmt.Sprintf("lock %s not acquired within %s", l.path, timeout), retryErr).
			WithDetail("path", l.path)
	}
	return handle, nil
}

// tryAcquire makes a single attempt. The flock sidecar guards the marker
// read-modify-write; it is held only for the duration of the transition.
func (l *Locker) tryAcquire() (*Handle, bool, error) {
	guard := flock.New(l.path + ".guard")
	ok, err := guard.TryLock()
	if err != nil {
		return nil, false, errors.IOError("failed to lock guard file", err)
	}
	if !ok {
		// Another process is mid-transition.
		return nil, false, nil
	}
	defer func() { _ = guard.Unlock() }()

	current, err := l.readMarker()
	if err != nil {
		return nil, false, err
	}

	if current != nil {
		age := time.Since(current.AcquiredAt)
		if age <= StalenessWindow {
			// Held and fresh.
			return nil, false, nil
		}
		// Presumed abandoned by a crashed holder. Break it, and leave an
		// audit trail naming the stale owner.
		l.logger.Warn("breaking stale lock",
			"path", l.path,
			"stale_owner", current.Owner,
			"age", age.Round(time.Millisecond))
	}

	now := time.Now()
	if err := l.writeMarker(marker{Owner: l.owner, AcquiredAt: now}); err != nil {
		return nil, false, err
	}

	return &Handle{Path: l.path, Owner: l.owner, AcquiredAt: now}, true, nil
}

// Release releases the lock. Idempotent: releasing a lock that was already
// broken or released by another process is not an error.
func (l *Locker) Release(handle *Handle) error {
	if handle == nil {
		return nil
	}

	guard := flock.New(l.path + ".guard")
	if err := guard.Lock(); err != nil {
		return errors.IOError("failed to lock guard file", err)
	}
	defer func() { _ = guard.Unlock() }()

	current, err := l.readMarker()
	if err != nil {
		return err
	}
	if current == nil || current.Owner != handle.Owner {
		// Already released, or broken and re-acquired by someone else.
		return nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.IOError("failed to remove lock marker", err)
	}
	return nil
}

// readMarker reads the current marker, returning nil if absent.
// An unparseable marker is treated as stale garbage and ignored.
func (l *Locker) readMarker() (*marker, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOError("failed to read lock marker", err)
	}

	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		l.logger.Warn("ignoring corrupt lock marker", "path", l.path, "error", err)
		return nil, nil
	}
	return &m, nil
}

func (l *Locker) writeMarker(m marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.InternalError("failed to marshal lock marker", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return errors.IOError("failed to write lock marker", err)
	}
	return nil
}

// ownerToken builds a process-distinguishing token: host, pid, and a random
// suffix so two runs of the same pid never collide.
func ownerToken() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), hex.EncodeToString(suffix))
}
