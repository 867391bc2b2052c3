// Package frameanalysis inspects the headers of a recorded measurement to
// reveal acquisition problems: lost frames, lost CPIs, synchronisation loss
// and ADC overdrive.
package frameanalysis

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/measurement"
	"github.com/banshee-data/reftrack/internal/timeutil"
)

// ErrNoFrames is returned when no frame remains after filtering.
var ErrNoFrames = errors.New("no IQ frames available")

// Frame is one decoded block header with its file index.
type Frame struct {
	Index  int
	Path   string
	Header *iqframe.FrameHeader
}

// Options selects which frames are analysed.
type Options struct {
	IgnoreNonData  bool
	IgnoreUnsynced bool
	TimestampUnit  string
}

// Load reads the header of every path, drops unreadable files and frames
// excluded by opts, and returns the rest sorted by file index together with
// the number of ignored frames.
func Load(fsys fsutil.FileSystem, paths []string, opts Options) ([]Frame, int, error) {
	frames := make([]Frame, 0, len(paths))
	ignored := 0
	for _, p := range paths {
		idx, err := measurement.ParseBlockIndex(p)
		if err != nil {
			log.Printf("[frameanalysis] warning: skipping %s: %v", p, err)
			ignored++
			continue
		}
		h, err := iqframe.ReadHeader(fsys, p)
		if err != nil {
			log.Printf("[frameanalysis] warning: skipping %s: %v", p, err)
			ignored++
			continue
		}
		if opts.IgnoreNonData && h.FrameType != iqframe.FrameTypeData {
			ignored++
			continue
		}
		if opts.IgnoreUnsynced && !h.IsSynced() {
			ignored++
			continue
		}
		frames = append(frames, Frame{Index: idx, Path: p, Header: h})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Index < frames[j].Index })

	if len(frames) == 0 {
		return nil, ignored, ErrNoFrames
	}
	return frames, ignored, nil
}

// Stats summarises a series.
type Stats struct {
	Mean, StdDev, Min, Max float64
}

func describe(x []float64) Stats {
	if len(x) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		std = 0
	}
	return Stats{Mean: mean, StdDev: std, Min: floats.Min(x), Max: floats.Max(x)}
}

// Analysis holds the per-frame series and the derived statistics.
type Analysis struct {
	Channels int

	Indices        []int
	Timestamps     []float64 // Seconds
	TimestampDiffs []float64 // Seconds between consecutive frames
	CPIIndices     []uint32
	CPIDiffs       []float64
	DelaySync      []uint32
	IQSync         []uint32
	FrameTypes     []uint32
	Overdrive      [][]int     // [channel][frame], 1 when overdriven
	IFGainsDB      [][]float64 // [channel][frame]

	TimestampStats  Stats
	LostCPIs        int // Sum of CPI index jumps beyond one
	DelaySyncLost   int
	IQSyncLost      int
	OverdriveCounts []int
	FrameTypeCounts map[uint32]int
}

// Analyze computes the series and statistics of frames, which must be
// sorted by index. The channel count comes from the first frame.
func Analyze(frames []Frame, unit string) (*Analysis, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	m := int(frames[0].Header.ActiveAntChs)
	if m > iqframe.MAX_CHANNELS {
		return nil, fmt.Errorf("%w: %d active channels", iqframe.ErrFormat, m)
	}

	n := len(frames)
	a := &Analysis{
		Channels:        m,
		Indices:         make([]int, n),
		Timestamps:      make([]float64, n),
		CPIIndices:      make([]uint32, n),
		DelaySync:       make([]uint32, n),
		IQSync:          make([]uint32, n),
		FrameTypes:      make([]uint32, n),
		Overdrive:       make([][]int, m),
		IFGainsDB:       make([][]float64, m),
		OverdriveCounts: make([]int, m),
		FrameTypeCounts: make(map[uint32]int),
	}
	for ch := 0; ch < m; ch++ {
		a.Overdrive[ch] = make([]int, n)
		a.IFGainsDB[ch] = make([]float64, n)
	}

	for i, f := range frames {
		h := f.Header
		a.Indices[i] = f.Index
		a.Timestamps[i] = timeutil.EpochSeconds(h.TimeStamp, unit)
		a.CPIIndices[i] = h.CPIIndex
		a.DelaySync[i] = h.DelaySyncFlag
		a.IQSync[i] = h.IQSyncFlag
		a.FrameTypes[i] = h.FrameType
		a.FrameTypeCounts[h.FrameType]++

		if h.DelaySyncFlag == 0 {
			a.DelaySyncLost++
		}
		if h.IQSyncFlag == 0 {
			a.IQSyncLost++
		}
		for ch := 0; ch < m; ch++ {
			if h.ADCOverdriveFlags&(1<<uint(ch)) != 0 {
				a.Overdrive[ch][i] = 1
				a.OverdriveCounts[ch]++
			}
			a.IFGainsDB[ch][i] = float64(h.IFGains[ch]) / 10
		}
	}

	if n > 1 {
		a.TimestampDiffs = make([]float64, n-1)
		a.CPIDiffs = make([]float64, n-1)
		for i := 1; i < n; i++ {
			a.TimestampDiffs[i-1] = a.Timestamps[i] - a.Timestamps[i-1]
			d := int64(a.CPIIndices[i]) - int64(a.CPIIndices[i-1])
			a.CPIDiffs[i-1] = float64(d)
			if d > 1 {
				a.LostCPIs += int(d - 1)
			}
		}
	}
	a.TimestampStats = describe(a.TimestampDiffs)
	return a, nil
}

// Summary returns the human readable findings, one per line.
func (a *Analysis) Summary() []string {
	lines := []string{
		fmt.Sprintf("Available IQ frames: %d (indices %d..%d)", len(a.Indices), a.Indices[0], a.Indices[len(a.Indices)-1]),
		fmt.Sprintf("Timestamp difference [s]: mean %.6f std %.6f min %.6f max %.6f",
			a.TimestampStats.Mean, a.TimestampStats.StdDev, a.TimestampStats.Min, a.TimestampStats.Max),
		fmt.Sprintf("Lost CPIs: %d", a.LostCPIs),
		fmt.Sprintf("Delay sync statistics [lost/total]: [%d/%d]", a.DelaySyncLost, len(a.Indices)),
		fmt.Sprintf("IQ sync statistics [lost/total]: [%d/%d]", a.IQSyncLost, len(a.Indices)),
	}
	for ch, c := range a.OverdriveCounts {
		lines = append(lines, fmt.Sprintf("Channel %d overdrives: %d", ch, c))
	}
	types := make([]int, 0, len(a.FrameTypeCounts))
	for t := range a.FrameTypeCounts {
		types = append(types, int(t))
	}
	sort.Ints(types)
	for _, t := range types {
		lines = append(lines, fmt.Sprintf("Frame type %d: %d", t, a.FrameTypeCounts[uint32(t)]))
	}
	return lines
}

// LogSummary writes Summary to the standard logger.
func (a *Analysis) LogSummary() {
	for _, l := range a.Summary() {
		log.Printf("[frameanalysis] %s", l)
	}
}
