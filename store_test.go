package kvs

import (
	"errors"
	"testing"

	"github.com/scorekvs/kvs/internal/checksum"
	"github.com/scorekvs/kvs/kvstest"
	"github.com/scorekvs/kvs/value"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, fs *kvstest.FS) *Store {
	t.Helper()
	s, err := Open(OpenOptions{Directory: "dir", Filesystem: fs})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenEmptyStoreHasNoKeys(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	keys, err := s.AllKeys()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestSetGetRoundTrip(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	require.NoError(t, s.Set("count", value.Int32(7)))
	got, err := s.Get("count")
	require.NoError(t, err)
	n, ok := got.AsInt32()
	require.True(t, ok)
	require.Equal(t, int32(7), n)
}

func TestGetMissingKeyIsError(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	_, err := s.Get("nope")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestGetFallsBackToDefault(t *testing.T) {
	var fs kvstest.FS
	require.NoError(t, fs.WriteFile("dir/kvs_0_default.json", []byte(`{"greeting":{"t":"str","v":"hi"}}`)))
	packHash(t, &fs, "dir/kvs_0_default.json", "dir/kvs_0_default.hash")

	s := openTest(t, &fs)
	got, err := s.Get("greeting")
	require.NoError(t, err)
	str, ok := got.AsString()
	require.True(t, ok)
	require.Equal(t, "hi", str)

	has := s.HasDefault("greeting")
	require.True(t, has)
	isDefault, err := s.IsValueDefault("greeting")
	require.NoError(t, err)
	require.True(t, isDefault)
}

func TestSetShadowsDefaultThenResetKeyRestoresIt(t *testing.T) {
	var fs kvstest.FS
	require.NoError(t, fs.WriteFile("dir/kvs_0_default.json", []byte(`{"greeting":{"t":"str","v":"hi"}}`)))
	packHash(t, &fs, "dir/kvs_0_default.json", "dir/kvs_0_default.hash")

	s := openTest(t, &fs)
	require.NoError(t, s.Set("greeting", value.String("bye")))

	isDefault, err := s.IsValueDefault("greeting")
	require.NoError(t, err)
	require.False(t, isDefault)

	require.NoError(t, s.ResetKey("greeting"))
	got, err := s.Get("greeting")
	require.NoError(t, err)
	str, _ := got.AsString()
	require.Equal(t, "hi", str)
}

func TestResetKeyWithoutDefaultIsError(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	require.NoError(t, s.Set("x", value.Bool(true)))
	err := s.ResetKey("x")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrKeyDefaultNotFound))
}

func TestRemoveMissingKeyIsError(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	err := s.Remove("nope")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestResetClearsWrittenLayerOnly(t *testing.T) {
	var fs kvstest.FS
	require.NoError(t, fs.WriteFile("dir/kvs_0_default.json", []byte(`{"a":{"t":"bool","v":true}}`)))
	packHash(t, &fs, "dir/kvs_0_default.json", "dir/kvs_0_default.hash")

	s := openTest(t, &fs)
	require.NoError(t, s.Set("b", value.Bool(false)))
	require.NoError(t, s.Reset())

	keys, err := s.AllKeys()
	require.NoError(t, err)
	require.Empty(t, keys)

	got, err := s.Get("a")
	require.NoError(t, err)
	b, _ := got.AsBool()
	require.True(t, b)
}

func TestFlushPersistsAndReopenSeesIt(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	require.NoError(t, s.Set("k", value.Int64(42)))
	require.NoError(t, s.Flush())

	reopened, err := Open(OpenOptions{Directory: "dir", Filesystem: &fs})
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get("k")
	require.NoError(t, err)
	n, _ := got.AsInt64()
	require.Equal(t, int64(42), n)
}

func TestFiveFlushesRotateSnapshotsToMax(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set("k", value.Int32(int32(i))))
		require.NoError(t, s.Flush())
	}
	count, err := s.SnapshotCount()
	require.NoError(t, err)
	require.Equal(t, DefaultMaxSnapshots, count)
}

func TestSnapshotRestoreRecoversOlderState(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	require.NoError(t, s.Set("k", value.Int32(1)))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Set("k", value.Int32(2)))
	require.NoError(t, s.Flush())

	require.NoError(t, s.SnapshotRestore(1))
	got, err := s.Get("k")
	require.NoError(t, err)
	n, _ := got.AsInt32()
	require.Equal(t, int32(1), n)
}

func TestSnapshotRestoreInvalidIdIsError(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	err := s.SnapshotRestore(1)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidSnapshotId))
}

func TestCloseFlushesByDefaultThenRejectsFurtherUse(t *testing.T) {
	var fs kvstest.FS
	s, err := Open(OpenOptions{Directory: "dir", Filesystem: &fs})
	require.NoError(t, err)
	require.NoError(t, s.Set("k", value.Bool(true)))
	s.Close()

	exists, err := fs.Exists("dir/kvs_0_0.json")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = s.Get("k")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrClosed))

	s.Close() // idempotent
}

func TestCloseWithFlushOnDropDisabledDoesNotPersist(t *testing.T) {
	var fs kvstest.FS
	s, err := Open(OpenOptions{Directory: "dir", Filesystem: &fs})
	require.NoError(t, err)
	s.SetFlushOnDrop(false)
	require.NoError(t, s.Set("k", value.Bool(true)))
	s.Close()

	exists, err := fs.Exists("dir/kvs_0_0.json")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestClosedStoreRejectsEveryErrorReturningMethod(t *testing.T) {
	var fs kvstest.FS
	s, err := Open(OpenOptions{Directory: "dir", Filesystem: &fs})
	require.NoError(t, err)
	s.Close()

	_, err = s.GetDefault("k")
	require.True(t, errors.Is(err, ErrClosed), "GetDefault")

	_, err = s.SnapshotCount()
	require.True(t, errors.Is(err, ErrClosed), "SnapshotCount")

	_, err = s.KVSFilename(0)
	require.True(t, errors.Is(err, ErrClosed), "KVSFilename")

	_, err = s.HashFilename(0)
	require.True(t, errors.Is(err, ErrClosed), "HashFilename")

	err = s.SnapshotRestore(1)
	require.True(t, errors.Is(err, ErrClosed), "SnapshotRestore")

	_, err = s.IsValueDefault("k")
	require.True(t, errors.Is(err, ErrClosed), "IsValueDefault")

	// HasDefault, SnapshotMaxCount, and SetFlushOnDrop carry no error
	// return in their signature and keep answering from unchanging
	// in-memory state after Close.
	require.False(t, s.HasDefault("k"))
	require.Equal(t, DefaultMaxSnapshots, s.SnapshotMaxCount())
	s.SetFlushOnDrop(false)
}

func TestOpenRequiredKvsMissingIsError(t *testing.T) {
	var fs kvstest.FS
	_, err := Open(OpenOptions{Directory: "dir", Filesystem: &fs, NeedKvs: Required})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrKvsFileReadError))
}

func TestKVSFilenameAndHashFilename(t *testing.T) {
	var fs kvstest.FS
	s := openTest(t, &fs)
	require.NoError(t, s.Set("k", value.Bool(true)))
	require.NoError(t, s.Flush())

	path, err := s.KVSFilename(0)
	require.NoError(t, err)
	require.Equal(t, "dir/kvs_0_0.json", path)

	hpath, err := s.HashFilename(0)
	require.NoError(t, err)
	require.Equal(t, "dir/kvs_0_0.hash", hpath)

	_, err = s.KVSFilename(9)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFileNotFound))
}

func packHash(t *testing.T, fs *kvstest.FS, jsonPath, hashPath string) {
	t.Helper()
	data, err := fs.ReadFile(jsonPath)
	require.NoError(t, err)
	packed := checksum.Pack(checksum.Sum(data))
	require.NoError(t, fs.WriteFile(hashPath, packed[:]))
}
