package spool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Queue scans a spool directory for pending job markers and claims at
// most one at a time system-wide through an exclusive lock file.
type Queue struct {
	dir    string
	logger *zap.Logger
}

// Handle wraps one claimed job. The marker sits in the Claimed state
// until Release moves it to its terminal state.
type Handle struct {
	ID         uuid.UUID
	Job        *Job
	MarkerPath string
}

// NewQueue creates a queue over the given spool directory.
func NewQueue(dir string) *Queue {
	return &Queue{dir: dir, logger: zap.NewNop()}
}

// SetLogger sets the logger for claim and release tracing.
func (q *Queue) SetLogger(l *zap.Logger) {
	q.logger = l
}

// Dir returns the spool directory.
func (q *Queue) Dir() string {
	return q.dir
}

// lockPath returns the lock file path for the spool directory.
func (q *Queue) lockPath() string {
	return filepath.Join(q.dir, lockName)
}

// Claim attempts to claim one pending job. It returns nil, nil when
// no job is pending or another worker holds the lock; claiming never
// blocks.
//
// Before scanning, a marker stuck in the Claimed state with no lock
// file present is reclaimed: a previous worker crashed between the
// rename and its release, and without this step the stale marker
// would never be processed again.
//
// Pending markers are visited in sorted directory order, so selection
// is deterministic for a given spool content.
func (q *Queue) Claim() (*Handle, error) {
	if err := q.reclaimStale(); err != nil {
		return nil, err
	}

	pending, err := q.pendingMarkers()
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	// The exclusive create is the mutual-exclusion primitive: exactly
	// one concurrent claimer wins, everyone else sees EEXIST.
	lock, err := os.OpenFile(q.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	lock.Close()

	marker := pending[0]
	claimed := strings.TrimSuffix(marker, Pending.Suffix()) + Claimed.Suffix()
	if err := os.Rename(marker, claimed); err != nil {
		q.Unlock()
		return nil, fmt.Errorf("claim marker: %w", err)
	}

	data, err := os.ReadFile(claimed)
	if err != nil {
		q.abandon(claimed)
		return nil, fmt.Errorf("read job payload: %w", err)
	}

	job, err := ParseJob(data)
	if err != nil {
		q.abandon(claimed)
		return nil, err
	}

	h := &Handle{ID: uuid.New(), Job: job, MarkerPath: claimed}
	q.logger.Info("claimed job",
		zap.String("id", h.ID.String()),
		zap.String("sample", job.SampleName),
		zap.String("marker", filepath.Base(claimed)))
	return h, nil
}

// Release finalizes a claimed job and removes the lock. On success
// the marker is deleted; on failure it is renamed to the Failed state
// and left for manual inspection. The lock is removed on every path.
func (q *Queue) Release(h *Handle, outcome error) {
	defer q.Unlock()

	if outcome == nil {
		if err := os.Remove(h.MarkerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			q.logger.Warn("remove marker", zap.Error(err))
		}
		q.logger.Info("released job", zap.String("id", h.ID.String()))
		return
	}

	failed := strings.TrimSuffix(h.MarkerPath, Claimed.Suffix()) + Failed.Suffix()
	if err := os.Rename(h.MarkerPath, failed); err != nil && !errors.Is(err, os.ErrNotExist) {
		q.logger.Warn("rename marker to error state", zap.Error(err))
	}
	q.logger.Warn("released job with failure",
		zap.String("id", h.ID.String()),
		zap.Error(outcome))
}

// Unlock removes the lock file if present. Safe to call repeatedly.
func (q *Queue) Unlock() {
	if err := os.Remove(q.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		q.logger.Warn("remove lock file", zap.Error(err))
	}
}

// Enqueue atomically places a pending marker for the job name: the
// payload is written to a temporary file and renamed into place. An
// existing marker with the same name is refused.
func (q *Queue) Enqueue(name string, payload []byte) (string, error) {
	marker := filepath.Join(q.dir, name+Pending.Suffix())
	if _, err := os.Stat(marker); err == nil {
		return "", fmt.Errorf("marker %s already exists", filepath.Base(marker))
	}

	tmp, err := os.CreateTemp(q.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp marker: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write marker payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp marker: %w", err)
	}
	if err := os.Rename(tmp.Name(), marker); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("place marker: %w", err)
	}
	return marker, nil
}

// abandon moves an unreadable or malformed claimed marker to the
// Failed state and releases the lock.
func (q *Queue) abandon(claimed string) {
	failed := strings.TrimSuffix(claimed, Claimed.Suffix()) + Failed.Suffix()
	if err := os.Rename(claimed, failed); err != nil {
		q.logger.Warn("abandon marker", zap.Error(err))
	}
	q.Unlock()
}

// reclaimStale renames claimed markers back to pending when no lock
// file exists, recovering jobs orphaned by a worker crash.
func (q *Queue) reclaimStale() error {
	if _, err := os.Stat(q.lockPath()); err == nil {
		return nil
	}

	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return fmt.Errorf("scan spool directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Claimed.Suffix()) {
			continue
		}
		claimed := filepath.Join(q.dir, entry.Name())
		pending := strings.TrimSuffix(claimed, Claimed.Suffix()) + Pending.Suffix()
		if err := os.Rename(claimed, pending); err != nil {
			return fmt.Errorf("reclaim stale marker: %w", err)
		}
		q.logger.Warn("reclaimed stale in-progress marker",
			zap.String("marker", entry.Name()))
	}
	return nil
}

// pendingMarkers lists pending marker paths in sorted order.
func (q *Queue) pendingMarkers() ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("scan spool directory: %w", err)
	}
	var pending []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Pending.Suffix()) {
			continue
		}
		pending = append(pending, filepath.Join(q.dir, entry.Name()))
	}
	return pending, nil
}
