package measurement

import (
	"fmt"
	"log"
	"sort"
)

// Timeline is the contiguous block index range of a measurement together
// with the recorded timestamp of every block seen. It is computed once and
// shared read-only by every target.
type Timeline struct {
	StartIndex int
	StopIndex  int
	StartTime  uint64 // Minimum raw header timestamp
	StopTime   uint64 // Maximum raw header timestamp

	// Seconds bounds, in the same order as StartTime/StopTime.
	StartSeconds float64
	StopSeconds  float64

	// CenterHz is the rf_center_freq of the lowest-index block.
	CenterHz uint64

	seconds map[int]float64
}

// Reduce computes the timeline over blocks in one linear scan. The index
// bounds and the timestamp bounds are tracked independently, so the block
// with the lowest index need not carry the earliest timestamp.
func Reduce(blocks []Block) (Timeline, error) {
	if len(blocks) == 0 {
		return Timeline{}, ErrNoBlocks
	}

	first := blocks[0]
	tl := Timeline{
		StartIndex:   first.Index,
		StopIndex:    first.Index,
		StartTime:    first.TimeStamp,
		StopTime:     first.TimeStamp,
		StartSeconds: first.Seconds,
		StopSeconds:  first.Seconds,
		CenterHz:     first.CenterHz,
		seconds:      make(map[int]float64, len(blocks)),
	}

	for _, b := range blocks {
		// A duplicate index keeps the first block's time but still takes
		// part in the timestamp bounds.
		if _, dup := tl.seconds[b.Index]; dup {
			log.Printf("[timeline] warning: duplicate block index %d in %s, keeping the first", b.Index, b.Path)
		} else {
			tl.seconds[b.Index] = b.Seconds
		}

		if b.TimeStamp < tl.StartTime {
			tl.StartTime = b.TimeStamp
			tl.StartSeconds = b.Seconds
		}
		if b.TimeStamp > tl.StopTime {
			tl.StopTime = b.TimeStamp
			tl.StopSeconds = b.Seconds
		}
		if b.Index < tl.StartIndex {
			tl.StartIndex = b.Index
			tl.CenterHz = b.CenterHz
		}
		if b.Index > tl.StopIndex {
			tl.StopIndex = b.Index
		}
	}
	return tl, nil
}

// Len returns the number of block indices covered, stop-start+1.
func (tl Timeline) Len() int {
	return tl.StopIndex - tl.StartIndex + 1
}

// Present returns the number of distinct blocks actually recorded.
func (tl Timeline) Present() int {
	return len(tl.seconds)
}

// Seconds returns the recorded time of block index and whether it was seen.
func (tl Timeline) Seconds(index int) (float64, bool) {
	s, ok := tl.seconds[index]
	return s, ok
}

// BlockTimes returns one timestamp in seconds per index in
// [StartIndex, StopIndex]. Indices with no recorded block get a time
// linearly interpolated between the nearest recorded neighbours; their
// indices are returned in missing.
func (tl Timeline) BlockTimes() (times []float64, missing []int) {
	n := tl.Len()
	if n <= 0 || len(tl.seconds) == 0 {
		return nil, nil
	}
	times = make([]float64, n)

	known := make([]int, 0, len(tl.seconds))
	for idx := range tl.seconds {
		known = append(known, idx)
	}
	sort.Ints(known)

	k := 0
	for i := 0; i < n; i++ {
		idx := tl.StartIndex + i
		if s, ok := tl.seconds[idx]; ok {
			times[i] = s
			continue
		}
		missing = append(missing, idx)
		for k+1 < len(known) && known[k+1] < idx {
			k++
		}
		lo, hi := known[k], known[k+1]
		s0, s1 := tl.seconds[lo], tl.seconds[hi]
		times[i] = s0 + (s1-s0)*float64(idx-lo)/float64(hi-lo)
	}
	return times, missing
}

// String summarises the timeline for logs.
func (tl Timeline) String() string {
	return fmt.Sprintf("blocks %d..%d (%d recorded), time stamps %d..%d",
		tl.StartIndex, tl.StopIndex, tl.Present(), tl.StartTime, tl.StopTime)
}
