package snapshot

import (
	"testing"

	"github.com/scorekvs/kvs/kvstest"
	"github.com/stretchr/testify/require"
)

func writeSlot(t *testing.T, fs *kvstest.FS, prefix string) {
	t.Helper()
	require.NoError(t, fs.WriteFile(prefix+".json", []byte("{}")))
	require.NoError(t, fs.WriteFile(prefix+".hash", []byte{0, 0, 0, 1}))
}

func TestCountEmpty(t *testing.T) {
	var fs kvstest.FS
	m := NewManager(&fs, "dir/kvs_0", DefaultMax, nil)
	count, err := m.Count()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestCountStopsAtFirstGap(t *testing.T) {
	var fs kvstest.FS
	m := NewManager(&fs, "dir/kvs_0", DefaultMax, nil)
	writeSlot(t, &fs, m.SlotPrefix(1))
	writeSlot(t, &fs, m.SlotPrefix(3)) // gap at 2
	count, err := m.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCountCapsAtMax(t *testing.T) {
	var fs kvstest.FS
	m := NewManager(&fs, "dir/kvs_0", 2, nil)
	writeSlot(t, &fs, m.SlotPrefix(1))
	writeSlot(t, &fs, m.SlotPrefix(2))
	count, err := m.Count()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRotateShiftsAndDropsOldest(t *testing.T) {
	var fs kvstest.FS
	m := NewManager(&fs, "dir/kvs_0", 3, nil)
	// Simulate a ring already at capacity: slot 0..3 all present.
	writeSlot(t, &fs, m.SlotPrefix(0))
	writeSlot(t, &fs, m.SlotPrefix(1))
	writeSlot(t, &fs, m.SlotPrefix(2))
	writeSlot(t, &fs, m.SlotPrefix(3))

	require.NoError(t, fs.WriteFile(m.SlotPrefix(0)+".json", []byte(`{"n":"live"}`)))

	require.NoError(t, m.Rotate())

	// slot 0 is moved out by rotate itself (caller writes a fresh one after).
	exists0, err := fs.Exists(m.SlotPrefix(0) + ".json")
	require.NoError(t, err)
	require.False(t, exists0)

	// old slot 0 -> 1, old slot 1 -> 2, old slot 2 -> 3, old slot 3 dropped.
	data1, err := fs.ReadFile(m.SlotPrefix(1) + ".json")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"n":"live"}`), data1)

	count, err := m.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestRotateToleratesEmptySlots(t *testing.T) {
	var fs kvstest.FS
	m := NewManager(&fs, "dir/kvs_0", 3, nil)
	writeSlot(t, &fs, m.SlotPrefix(0))
	require.NoError(t, m.Rotate())
	count, err := m.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestFiveFlushesLeaveExactlyMaxPlusOneSlots(t *testing.T) {
	var fs kvstest.FS
	m := NewManager(&fs, "dir/kvs_0", 3, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Rotate())
		writeSlot(t, &fs, m.SlotPrefix(0))
	}
	count, err := m.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)
	exists, err := fs.Exists(m.SlotPrefix(4) + ".json")
	require.NoError(t, err)
	require.False(t, exists, "slot beyond Max must never be created")
}
