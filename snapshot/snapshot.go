// Package snapshot implements the bounded ring of prior persisted states
// kept alongside a store's live slot: enumeration of how many snapshots
// currently exist, and the rename-based rotation that makes room for a
// new commit.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scorekvs/kvs/internal/kvserr"
	"github.com/scorekvs/kvs/internal/kvsfs"
)

// DefaultMax is the reference retention depth used when no override is
// configured.
const DefaultMax = 3

// Manager enumerates and rotates the numbered slots derived from a
// prefix: "<prefix>_1" .. "<prefix>_<Max>", oldest at the highest
// number. Slot 0 (the live state) is written by the caller; Manager only
// moves it into slot 1 during Rotate.
type Manager struct {
	fs     kvsfs.Filesystem
	prefix string
	max    int
	logger hclog.Logger
}

// NewManager returns a Manager for the given prefix (without a slot
// suffix) and retention depth. A nil logger is replaced with a no-op one.
func NewManager(fsys kvsfs.Filesystem, prefix string, max int, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{fs: fsys, prefix: prefix, max: max, logger: logger}
}

// Max returns the retention depth this Manager was constructed with.
func (m *Manager) Max() int { return m.max }

// SlotPrefix returns the "<prefix>_<id>" prefix for the given slot id
// (0 is the live slot).
func (m *Manager) SlotPrefix(id int) string {
	return fmt.Sprintf("%s_%d", m.prefix, id)
}

// Count returns the largest k such that every slot 1..=k exists,
// capped at Max.
func (m *Manager) Count() (int, error) {
	count := 0
	for i := 1; i <= m.max; i++ {
		exists, err := m.fs.Exists(m.SlotPrefix(i) + ".json")
		if err != nil {
			return 0, &kvserr.Error{Kind: kvserr.PhysicalStorageFailure, Context: m.SlotPrefix(i), Cause: err}
		}
		if !exists {
			break
		}
		count = i
	}
	return count, nil
}

// Rotate shifts slot k-1 into slot k for k from Max down to 1, making
// room for a fresh slot 0. The current occupant of Max, if any, is
// dropped. A rename whose source is missing is tolerated (that slot was
// simply empty); any other rename failure aborts rotation and is
// reported as PhysicalStorageFailure.
func (m *Manager) Rotate() error {
	m.logger.Debug("rotating snapshots", "prefix", m.prefix, "max", m.max)
	for i := m.max; i >= 1; i-- {
		src := m.SlotPrefix(i - 1)
		dst := m.SlotPrefix(i)
		if err := m.renameOne(src+".hash", dst+".hash"); err != nil {
			return err
		}
		if err := m.renameOne(src+".json", dst+".json"); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) renameOne(src, dst string) error {
	err := m.fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, kvsfs.ErrFsNotExist) {
		return nil
	}
	return &kvserr.Error{Kind: kvserr.PhysicalStorageFailure, Context: fmt.Sprintf("%s -> %s", src, dst), Cause: err}
}
