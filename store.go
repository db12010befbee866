package kvs

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/scorekvs/kvs/internal/osfs"
	"github.com/scorekvs/kvs/internal/persist"
	"github.com/scorekvs/kvs/snapshot"
	"github.com/scorekvs/kvs/value"
)

// Policy controls how Open treats a missing default or live document.
type Policy uint8

const (
	// Optional treats a missing file as an empty document.
	Optional Policy = iota
	// Required treats a missing file as an error.
	Required
)

func (p Policy) persistPolicy() persist.Policy {
	if p == Required {
		return persist.Required
	}
	return persist.Optional
}

// DefaultMaxSnapshots is the reference retention depth used when
// OpenOptions.MaxSnapshots is left at zero.
const DefaultMaxSnapshots = snapshot.DefaultMax

// OpenOptions configures Open.
type OpenOptions struct {
	// InstanceID identifies this store within Directory.
	InstanceID uint32

	// Directory holds the instance's files. Empty means the current
	// directory.
	Directory string

	// NeedDefaults and NeedKvs select whether a missing default/live
	// document is an error (Required) or treated as empty (Optional).
	NeedDefaults Policy
	NeedKvs      Policy

	// MaxSnapshots overrides DefaultMaxSnapshots when non-zero.
	MaxSnapshots int

	// Filesystem overrides the default local-disk backend.
	Filesystem Filesystem

	// Logger receives diagnostic Trace/Debug lines. A nil Logger is
	// replaced with a no-op one.
	Logger hclog.Logger
}

// Store is a persistent key-value store: an in-memory written layer over
// a read-only default layer, flushed to a hash-validated JSON pair with
// a bounded ring of prior snapshots. All exported methods are safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex // protects kv only, acquired via TryLock
	kv       map[string]value.Value
	defaults map[string]value.Value

	prefix      string
	fs          Filesystem
	snapshots   *snapshot.Manager
	flushOnDrop atomic.Bool
	closed      atomic.Bool
	logger      hclog.Logger
}

// Open loads (or initializes) the instance described by opts.
func Open(opts OpenOptions) (*Store, error) {
	dir := opts.Directory
	if dir == "" {
		dir = "."
	}
	fsys := opts.Filesystem
	if fsys == nil {
		fsys = osfs.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	maxSnapshots := opts.MaxSnapshots
	if maxSnapshots == 0 {
		maxSnapshots = DefaultMaxSnapshots
	}

	prefix := filepath.Join(dir, fmt.Sprintf("kvs_%d", opts.InstanceID))
	logger.Debug("opening store", "prefix", prefix)

	defaults, err := loadDocument(fsys, prefix+"_default", opts.NeedDefaults.persistPolicy())
	if err != nil {
		return nil, err
	}
	kv, err := loadDocument(fsys, fmt.Sprintf("%s_0", prefix), opts.NeedKvs.persistPolicy())
	if err != nil {
		return nil, err
	}

	s := &Store{
		kv:        kv,
		defaults:  defaults,
		prefix:    prefix,
		fs:        fsys,
		snapshots: snapshot.NewManager(fsys, prefix, maxSnapshots, logger),
		logger:    logger,
	}
	s.flushOnDrop.Store(true)
	return s, nil
}

func loadDocument(fsys Filesystem, prefix string, policy persist.Policy) (map[string]value.Value, error) {
	data, present, err := persist.ReadPair(fsys, prefix, policy)
	if err != nil {
		return nil, err
	}
	if !present {
		return make(map[string]value.Value), nil
	}
	tree, err := persist.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	m, err := value.DecodeMap(tree)
	if err != nil {
		return nil, &Error{Kind: InvalidValueType, Cause: err}
	}
	return m, nil
}

func (s *Store) tryLock() error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if !s.mu.TryLock() {
		return &Error{Kind: MutexLockFailed}
	}
	return nil
}

// checkClosed reports ErrClosed once the store has been closed. Every
// method with an error return participates in this check; HasDefault,
// SnapshotMaxCount, and SetFlushOnDrop cannot (their signatures carry no
// error channel) and keep working after Close, since no error contract
// binds them.
func (s *Store) checkClosed() error {
	if s.closed.Load() {
		return &Error{Kind: Closed}
	}
	return nil
}

// Reset clears every written key. The default layer is unaffected.
func (s *Store) Reset() error {
	if err := s.tryLock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.kv = make(map[string]value.Value)
	return nil
}

// AllKeys returns a snapshot of the currently written keys (the default
// layer is not included unless also written).
func (s *Store) AllKeys() ([]string, error) {
	if err := s.tryLock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		keys = append(keys, k)
	}
	return keys, nil
}

// Contains reports whether key is present in the written layer.
func (s *Store) Contains(key string) (bool, error) {
	if err := s.tryLock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	_, ok := s.kv[key]
	return ok, nil
}

// Get returns the written value for key, falling back to the default
// layer if key was never written.
func (s *Store) Get(key string) (value.Value, error) {
	if err := s.tryLock(); err != nil {
		return value.Value{}, err
	}
	v, ok := s.kv[key]
	s.mu.Unlock()
	if ok {
		return v.Clone(), nil
	}
	if d, ok := s.defaults[key]; ok {
		return d.Clone(), nil
	}
	return value.Value{}, &Error{Kind: KeyNotFound, Context: key}
}

// GetDefault returns key's default value, ignoring any written override.
func (s *Store) GetDefault(key string) (value.Value, error) {
	if err := s.checkClosed(); err != nil {
		return value.Value{}, err
	}
	if d, ok := s.defaults[key]; ok {
		return d.Clone(), nil
	}
	return value.Value{}, &Error{Kind: KeyNotFound, Context: key}
}

// HasDefault reports whether key has a default value at all.
func (s *Store) HasDefault(key string) bool {
	_, ok := s.defaults[key]
	return ok
}

// IsValueDefault reports whether the currently visible value for key is
// the default: false if a written entry shadows it, true if only the
// default exists, ErrKeyNotFound if neither layer has key. Unlike
// HasDefault, which only asks whether a default exists at all, this
// also accounts for shadowing by a written value.
func (s *Store) IsValueDefault(key string) (bool, error) {
	if err := s.tryLock(); err != nil {
		return false, err
	}
	_, written := s.kv[key]
	s.mu.Unlock()
	if written {
		return false, nil
	}
	if _, ok := s.defaults[key]; ok {
		return true, nil
	}
	return false, &Error{Kind: KeyNotFound, Context: key}
}

// ResetKey removes key's written entry, restoring visibility of its
// default. It is an error if key has no default, even if a written
// entry exists — that entry is left untouched in that case.
func (s *Store) ResetKey(key string) error {
	if err := s.tryLock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if _, ok := s.defaults[key]; !ok {
		return &Error{Kind: KeyDefaultNotFound, Context: key}
	}
	delete(s.kv, key)
	return nil
}

// Set inserts or replaces key's written value.
func (s *Store) Set(key string, v value.Value) error {
	if err := s.tryLock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.kv[key] = v.Clone()
	return nil
}

// Remove erases key from the written layer. Removing an absent key is
// an error; the default layer is not consulted.
func (s *Store) Remove(key string) error {
	if err := s.tryLock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if _, ok := s.kv[key]; !ok {
		return &Error{Kind: KeyNotFound, Context: key}
	}
	delete(s.kv, key)
	return nil
}

// SetFlushOnDrop updates whether Close flushes before returning.
func (s *Store) SetFlushOnDrop(flag bool) {
	s.flushOnDrop.Store(flag)
}

// SnapshotMaxCount returns the configured retention depth.
func (s *Store) SnapshotMaxCount() int {
	return s.snapshots.Max()
}

// SnapshotCount returns the number of snapshots currently retained.
func (s *Store) SnapshotCount() (int, error) {
	if err := s.checkClosed(); err != nil {
		return 0, err
	}
	return s.snapshots.Count()
}

// KVSFilename returns the path to slot id's .json file, if it exists.
// id 0 is the live slot.
func (s *Store) KVSFilename(id int) (string, error) {
	return s.slotFilename(id, ".json")
}

// HashFilename returns the path to slot id's .hash file, if it exists.
func (s *Store) HashFilename(id int) (string, error) {
	return s.slotFilename(id, ".hash")
}

func (s *Store) slotFilename(id int, suffix string) (string, error) {
	if err := s.checkClosed(); err != nil {
		return "", err
	}
	path := s.snapshots.SlotPrefix(id) + suffix
	exists, err := s.fs.Exists(path)
	if err != nil {
		return "", &Error{Kind: PhysicalStorageFailure, Context: path, Cause: err}
	}
	if !exists {
		return "", &Error{Kind: FileNotFound, Context: path}
	}
	return path, nil
}

// Flush persists the written layer: encode under lock, release,
// serialize, rotate the snapshot ring, then write the new slot 0. The
// store's in-memory state is unchanged by any flush failure; a failed
// flush does not roll back a rotation that already happened.
func (s *Store) Flush() error {
	if err := s.tryLock(); err != nil {
		return err
	}
	keys := len(s.kv)
	tree, err := value.EncodeMap(s.kv)
	s.mu.Unlock()
	if err != nil {
		return &Error{Kind: InvalidValueType, Cause: err}
	}
	data, err := persist.MarshalDocument(tree)
	if err != nil {
		return err
	}

	s.logger.Debug("flushing store", "prefix", s.prefix, "keys", keys)
	if err := s.snapshots.Rotate(); err != nil {
		return err
	}
	return persist.WritePair(s.fs, s.prefix+"_0", data)
}

// SnapshotRestore replaces the written layer with the contents of
// snapshot id (1..=SnapshotCount()). The default layer is unaffected.
func (s *Store) SnapshotRestore(id int) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	count, err := s.snapshots.Count()
	if err != nil {
		return err
	}
	if id <= 0 || id > count {
		return &Error{Kind: InvalidSnapshotId, Context: fmt.Sprintf("%d", id)}
	}

	data, present, err := persist.ReadPair(s.fs, s.snapshots.SlotPrefix(id), persist.Required)
	if err != nil {
		return err
	}
	if !present {
		return &Error{Kind: KvsFileReadError, Context: s.snapshots.SlotPrefix(id)}
	}
	tree, err := persist.ParseDocument(data)
	if err != nil {
		return err
	}
	restored, err := value.DecodeMap(tree)
	if err != nil {
		return &Error{Kind: InvalidValueType, Cause: err}
	}

	if err := s.tryLock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.kv = restored
	return nil
}

// Close ends the store's lifecycle: if flush-on-drop is set, it flushes,
// discarding the result, and marks the store closed. After Close, every
// method with an error return reports ErrClosed (see checkClosed). Close
// is idempotent. Callers who need to observe a flush failure should call
// Flush explicitly beforehand.
func (s *Store) Close() {
	if s.closed.Load() {
		return
	}
	if s.flushOnDrop.Load() {
		_ = s.Flush()
	}
	s.closed.Store(true)
}
