package track

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"
)

// GapPolicy selects what happens when the nearest trajectory sample is
// further than MaxGap from a block's timestamp.
type GapPolicy int

const (
	// GapIgnore assigns the nearest sample regardless of distance.
	GapIgnore GapPolicy = iota
	// GapFlag keeps the rows but counts and logs them as stale.
	GapFlag
	// GapReject fails the target with ErrValidation.
	GapReject
)

// ParseGapPolicy maps a configuration value onto a GapPolicy.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch s {
	case "", "ignore":
		return GapIgnore, nil
	case "flag":
		return GapFlag, nil
	case "reject":
		return GapReject, nil
	}
	return GapIgnore, fmt.Errorf("%w: unknown gap policy %q", ErrValidation, s)
}

func (p GapPolicy) String() string {
	switch p {
	case GapFlag:
		return "flag"
	case GapReject:
		return "reject"
	default:
		return "ignore"
	}
}

// AssignOptions controls Assign. A zero MaxGap disables gap checks.
type AssignOptions struct {
	Policy GapPolicy
	MaxGap time.Duration
}

// Assignment holds one trajectory sample per block, in block order.
type Assignment struct {
	Samples []Point
	Gaps    []float64 // |block time - sample time| in seconds
	Stale   int       // Blocks whose gap exceeds MaxGap
}

// Assign picks, for every block timestamp, the trajectory sample with the
// smallest absolute time difference. Ties go to the earlier sample. Every
// block receives exactly one sample.
func Assign(traj Trajectory, blockTimes []float64, opts AssignOptions) (Assignment, error) {
	if traj.Len() == 0 {
		return Assignment{}, fmt.Errorf("%w: empty trajectory", ErrValidation)
	}
	ts := make([]int64, traj.Len())
	for i, p := range traj.Points {
		ts[i] = p.Timestamp
	}

	maxGap := opts.MaxGap.Seconds()
	a := Assignment{
		Samples: make([]Point, len(blockTimes)),
		Gaps:    make([]float64, len(blockTimes)),
	}
	for b, t := range blockTimes {
		i := NearestIndex(ts, t)
		a.Samples[b] = traj.Points[i]
		gap := math.Abs(float64(ts[i]) - t)
		a.Gaps[b] = gap

		if maxGap > 0 && gap > maxGap {
			a.Stale++
			if opts.Policy == GapReject {
				return Assignment{}, fmt.Errorf("%w: block %d is %.3fs from nearest sample (max %s)",
					ErrValidation, b, gap, opts.MaxGap)
			}
		}
	}
	if a.Stale > 0 && opts.Policy == GapFlag {
		log.Printf("[track] warning: %d of %d blocks more than %s from the trajectory", a.Stale, len(blockTimes), opts.MaxGap)
	}
	return a, nil
}

// NearestIndex returns the index of the element of the sorted slice ts
// closest to t, preferring the first occurrence on ties. It returns -1 for an
// empty slice.
func NearestIndex(ts []int64, t float64) int {
	n := len(ts)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return float64(ts[i]) >= t })
	switch {
	case i == 0:
	case i == n:
		i = n - 1
	case t-float64(ts[i-1]) <= float64(ts[i])-t:
		i--
	}
	for i > 0 && ts[i-1] == ts[i] {
		i--
	}
	return i
}
