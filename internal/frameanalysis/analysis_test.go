package frameanalysis

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/testutil"
)

func seedFrames(t *testing.T) (*fsutil.MemoryFileSystem, []string) {
	t.Helper()
	m := fsutil.NewMemoryFileSystem()
	var paths []string

	// Written out of order; CPI 3 is lost between indices 2 and 3.
	h := testutil.BlockHeader(1_576_800_002_000, 4)
	paths = append(paths, testutil.WriteBlock(m, "iq", 3, h))

	h = testutil.BlockHeader(1_576_800_000_000, 1)
	h.ADCOverdriveFlags = 1<<0 | 1<<2
	h.IFGains[1] = 197
	paths = append(paths, testutil.WriteBlock(m, "iq", 1, h))

	h = testutil.BlockHeader(1_576_800_001_000, 2)
	h.DelaySyncFlag = 0
	h.ADCOverdriveFlags = 1 << 2
	paths = append(paths, testutil.WriteBlock(m, "iq", 2, h))

	h = testutil.BlockHeader(1_576_800_001_500, 0)
	h.FrameType = iqframe.FrameTypeCalibration
	paths = append(paths, testutil.WriteBlock(m, "iq", 4, h))

	m.WriteFile("iq/garbage_5.iqf", []byte("short"))
	paths = append(paths, "iq/garbage_5.iqf", "iq/no-index.iqf")
	return m, paths
}

func TestLoadSortsAndFilters(t *testing.T) {
	m, paths := seedFrames(t)

	frames, ignored, err := Load(m, paths, Options{TimestampUnit: "ms"})
	require.NoError(t, err)
	assert.Equal(t, 2, ignored)
	require.Len(t, frames, 4)
	for i, want := range []int{1, 2, 3, 4} {
		assert.Equal(t, want, frames[i].Index)
	}

	frames, ignored, err = Load(m, paths, Options{IgnoreNonData: true})
	require.NoError(t, err)
	assert.Equal(t, 3, ignored)
	assert.Len(t, frames, 3)

	frames, ignored, err = Load(m, paths, Options{IgnoreNonData: true, IgnoreUnsynced: true})
	require.NoError(t, err)
	assert.Equal(t, 4, ignored)
	assert.Len(t, frames, 2)
}

func TestLoadNoFrames(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	_, _, err := Load(m, nil, Options{})
	assert.True(t, errors.Is(err, ErrNoFrames))

	_, err = Analyze(nil, "ms")
	assert.True(t, errors.Is(err, ErrNoFrames))
}

func TestAnalyze(t *testing.T) {
	m, paths := seedFrames(t)
	frames, _, err := Load(m, paths, Options{IgnoreNonData: true})
	require.NoError(t, err)

	a, err := Analyze(frames, "ms")
	require.NoError(t, err)

	assert.Equal(t, 5, a.Channels)
	assert.Equal(t, []int{1, 2, 3}, a.Indices)
	assert.Equal(t, []float64{1, 1}, a.TimestampDiffs)
	assert.InDelta(t, 1.0, a.TimestampStats.Mean, 1e-9)
	assert.InDelta(t, 0.0, a.TimestampStats.StdDev, 1e-9)
	assert.Equal(t, []float64{1, 2}, a.CPIDiffs)
	assert.Equal(t, 1, a.LostCPIs)
	assert.Equal(t, 1, a.DelaySyncLost)
	assert.Equal(t, 0, a.IQSyncLost)
	assert.Equal(t, []int{1, 0, 2, 0, 0}, a.OverdriveCounts)
	assert.Equal(t, []int{1, 0, 0}, a.Overdrive[0])
	assert.InDelta(t, 19.7, a.IFGainsDB[1][0], 1e-9)
	assert.Equal(t, map[uint32]int{iqframe.FrameTypeData: 3}, a.FrameTypeCounts)

	summary := strings.Join(a.Summary(), "\n")
	assert.Contains(t, summary, "Delay sync statistics [lost/total]: [1/3]")
	assert.Contains(t, summary, "Lost CPIs: 1")
	assert.Contains(t, summary, "Channel 2 overdrives: 2")
}

func TestAnalyzeSingleFrame(t *testing.T) {
	m, paths := seedFrames(t)
	frames, _, err := Load(m, paths[:1], Options{})
	require.NoError(t, err)

	a, err := Analyze(frames, "ms")
	require.NoError(t, err)
	assert.Empty(t, a.TimestampDiffs)
	assert.Equal(t, Stats{}, a.TimestampStats)
	a.LogSummary()
}

func TestAnalyzeRejectsTooManyChannels(t *testing.T) {
	h := testutil.BlockHeader(0, 0)
	h.ActiveAntChs = iqframe.MAX_CHANNELS + 1
	_, err := Analyze([]Frame{{Index: 0, Header: h}}, "ms")
	assert.True(t, errors.Is(err, iqframe.ErrFormat))
}

func TestRender(t *testing.T) {
	m, paths := seedFrames(t)
	frames, _, err := Load(m, paths, Options{})
	require.NoError(t, err)
	a, err := Analyze(frames, "ms")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, a))
	html := buf.String()
	assert.Contains(t, html, "IQ Frame Analysis")
	assert.Contains(t, html, "Delay sync")
	assert.Contains(t, html, "Channel:4")
}
