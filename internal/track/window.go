package track

import "fmt"

// WindowOptions controls ExtractWindow.
type WindowOptions struct {
	// StrictPadding fails with ErrBounds when the feed has no point before or
	// after the measurement interval. By default the window is clamped.
	StrictPadding bool
}

// Window is the feed slice relevant to a measurement.
type Window struct {
	Points []Point

	// PaddedBefore and PaddedAfter report whether a point outside the
	// interval was added on that side.
	PaddedBefore bool
	PaddedAfter  bool
}

// Clamped reports whether padding was missing on either side.
func (w Window) Clamped() bool { return !w.PaddedBefore || !w.PaddedAfter }

// ExtractWindow selects every point with start <= timestamp <= stop plus the
// one point immediately preceding and the one immediately following that run,
// so the resampled curve covers both ends of the interval. points must be
// ordered by timestamp. The result shares no memory with points.
func ExtractWindow(points []Point, start, stop float64, opts WindowOptions) (Window, error) {
	first, last := -1, -1
	for i, p := range points {
		ts := float64(p.Timestamp)
		if ts >= start && ts <= stop {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Window{}, fmt.Errorf("%w: %d points, interval [%.3f, %.3f]", ErrEmptyWindow, len(points), start, stop)
	}

	w := Window{}
	lo, hi := first, last
	if first > 0 {
		lo = first - 1
		w.PaddedBefore = true
	}
	if last+1 < len(points) {
		hi = last + 1
		w.PaddedAfter = true
	}
	if opts.StrictPadding && w.Clamped() {
		return Window{}, fmt.Errorf("%w: before=%t after=%t", ErrBounds, w.PaddedBefore, w.PaddedAfter)
	}

	w.Points = make([]Point, hi-lo+1)
	copy(w.Points, points[lo:hi+1])
	return w, nil
}
