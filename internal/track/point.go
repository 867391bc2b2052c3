// Package track aligns a commercial tracking feed with the time base of a
// recorded measurement: window extraction, 1 s resampling and nearest-sample
// assignment to recorded blocks.
package track

import "errors"

var (
	// ErrEmptyWindow is returned when no feed point falls inside the measurement.
	ErrEmptyWindow = errors.New("no track points inside measurement window")

	// ErrValidation is returned when resampling or assignment inputs are inconsistent.
	ErrValidation = errors.New("track validation failed")

	// ErrBounds is returned in strict mode when padding beyond the feed is required.
	ErrBounds = errors.New("track window exceeds feed bounds")
)

// Point is one feed report. Altitude, speed and direction keep the feed's
// units: feet, knots and degrees.
type Point struct {
	Timestamp int64 // Epoch seconds
	Lat       float64
	Lon       float64
	Altitude  float64 // ft
	Speed     float64 // kt
	Direction float64 // deg, 0-360
}

// Trajectory is a track resampled at a fixed 1 s cadence.
type Trajectory struct {
	Points []Point
}

// Len returns the number of samples.
func (tr Trajectory) Len() int { return len(tr.Points) }

// Start returns the first sample timestamp. It panics on an empty trajectory.
func (tr Trajectory) Start() int64 { return tr.Points[0].Timestamp }

// Stop returns the last sample timestamp. It panics on an empty trajectory.
func (tr Trajectory) Stop() int64 { return tr.Points[len(tr.Points)-1].Timestamp }
