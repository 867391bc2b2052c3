package measurement

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/testutil"
)

func blocksOf(indices []int, stamps []uint64) []Block {
	out := make([]Block, len(indices))
	for i := range indices {
		out[i] = Block{Index: indices[i], TimeStamp: stamps[i], Seconds: float64(stamps[i])}
	}
	return out
}

func TestReduceIndependentBounds(t *testing.T) {
	tl, err := Reduce(blocksOf([]int{5, 6, 7, 9}, []uint64{100, 90, 110, 95}))
	require.NoError(t, err)

	assert.Equal(t, 5, tl.StartIndex)
	assert.Equal(t, 9, tl.StopIndex)
	assert.Equal(t, uint64(90), tl.StartTime)
	assert.Equal(t, uint64(110), tl.StopTime)
	assert.Equal(t, 90.0, tl.StartSeconds)
	assert.Equal(t, 110.0, tl.StopSeconds)
	assert.Equal(t, 5, tl.Len())
	assert.Equal(t, 4, tl.Present())
}

func TestReduceOrderIndependent(t *testing.T) {
	a, err := Reduce(blocksOf([]int{9, 5, 7, 6}, []uint64{95, 100, 110, 90}))
	require.NoError(t, err)
	b, err := Reduce(blocksOf([]int{5, 6, 7, 9}, []uint64{100, 90, 110, 95}))
	require.NoError(t, err)
	assert.Equal(t, b.String(), a.String())
}

func TestReduceSingleBlock(t *testing.T) {
	tl, err := Reduce(blocksOf([]int{3}, []uint64{42}))
	require.NoError(t, err)
	assert.Equal(t, 3, tl.StartIndex)
	assert.Equal(t, 3, tl.StopIndex)
	assert.Equal(t, uint64(42), tl.StartTime)
	assert.Equal(t, uint64(42), tl.StopTime)
}

func TestReduceEmpty(t *testing.T) {
	_, err := Reduce(nil)
	assert.True(t, errors.Is(err, ErrNoBlocks))
}

func TestReduceDuplicateIndexKeepsFirst(t *testing.T) {
	tl, err := Reduce(blocksOf([]int{1, 1, 2}, []uint64{10, 500, 11}))
	require.NoError(t, err)
	s, ok := tl.Seconds(1)
	require.True(t, ok)
	assert.Equal(t, 10.0, s)
	assert.Equal(t, uint64(500), tl.StopTime)
	assert.Equal(t, 500.0, tl.StopSeconds)
	assert.Equal(t, uint64(10), tl.StartTime)
}

func TestReduceDuplicateIndexJoinsStartTime(t *testing.T) {
	tl, err := Reduce(blocksOf([]int{3, 4, 3}, []uint64{20, 21, 7}))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), tl.StartTime)
	assert.Equal(t, 7.0, tl.StartSeconds)
	s, ok := tl.Seconds(3)
	require.True(t, ok)
	assert.Equal(t, 20.0, s)
	assert.Equal(t, 3, tl.StartIndex)
	assert.Equal(t, 4, tl.StopIndex)
}

func TestReduceCenterFromLowestIndex(t *testing.T) {
	blocks := []Block{
		{Index: 8, TimeStamp: 1, CenterHz: 100},
		{Index: 2, TimeStamp: 2, CenterHz: 90_300_000},
	}
	tl, err := Reduce(blocks)
	require.NoError(t, err)
	assert.Equal(t, uint64(90_300_000), tl.CenterHz)
}

func TestBlockTimesInterpolatesMissing(t *testing.T) {
	tl, err := Reduce(blocksOf([]int{5, 6, 7, 9}, []uint64{100, 101, 102, 106}))
	require.NoError(t, err)

	times, missing := tl.BlockTimes()
	assert.Equal(t, []float64{100, 101, 102, 104, 106}, times)
	assert.Equal(t, []int{8}, missing)
}

func TestBlockTimesComplete(t *testing.T) {
	tl, err := Reduce(blocksOf([]int{0, 1, 2}, []uint64{7, 8, 9}))
	require.NoError(t, err)
	times, missing := tl.BlockTimes()
	assert.Equal(t, []float64{7, 8, 9}, times)
	assert.Empty(t, missing)
}

func TestBlockTimesEmptyTimeline(t *testing.T) {
	times, missing := Timeline{}.BlockTimes()
	assert.Nil(t, times)
	assert.Nil(t, missing)
}

func TestScan(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	testutil.WriteBlocks(m, "iq", []int{5, 6, 7, 9}, []uint64{100, 90, 110, 95})
	m.WriteFile(filepath.Join("iq", "VEGAM_broken_8.iqf"), []byte("short"))
	m.WriteFile(filepath.Join("iq", "VEGAM_noindex.iqf"), iqframe.Encode(testutil.BlockHeader(1, 0)))

	tl, err := ScanDir(m, "iq", "s")
	require.NoError(t, err)
	assert.Equal(t, 5, tl.StartIndex)
	assert.Equal(t, 9, tl.StopIndex)
	assert.Equal(t, uint64(90), tl.StartTime)
	assert.Equal(t, uint64(110), tl.StopTime)
	assert.Equal(t, 4, tl.Present(), "malformed and unnamed blocks are skipped")
	assert.Equal(t, uint64(90_300_000), tl.CenterHz)
}

func TestScanTimestampUnit(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	testutil.WriteBlocks(m, "iq", []int{1, 2}, []uint64{1576755262000, 1576755262500})

	tl, err := ScanDir(m, "iq", "ms")
	require.NoError(t, err)
	times, _ := tl.BlockTimes()
	assert.Equal(t, []float64{1576755262, 1576755262.5}, times)
}

func TestScanNoBlocks(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	m.WriteFile(filepath.Join("iq", "VEGAM_1.iqf"), []byte("too short"))

	_, err := ScanDir(m, "iq", "s")
	assert.ErrorIs(t, err, ErrNoBlocks)

	_, err = ScanDir(fsutil.NewMemoryFileSystem(), "empty", "s")
	assert.ErrorIs(t, err, ErrNoBlocks)
}

func TestScanMissingFile(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	testutil.WriteBlocks(m, "iq", []int{1}, []uint64{10})

	tl, err := Scan(m, []string{testutil.BlockName("iq", 1), testutil.BlockName("iq", 2)}, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, tl.Present())
}
