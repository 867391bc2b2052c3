// Package reftrack assembles per-block reference tracks for a passive radar
// measurement and runs the end-to-end pipeline that produces them.
package reftrack

import (
	"fmt"

	"github.com/banshee-data/reftrack/internal/bistatic"
	"github.com/banshee-data/reftrack/internal/track"
	"github.com/banshee-data/reftrack/internal/units"
)

// Columns is the number of values per row in the persisted table.
const Columns = 10

// Row is the reference state of the target at one recorded block.
// Altitude, speed and direction keep the feed units (ft, kt, deg); the
// bistatic values are in metres, hertz and degrees.
type Row struct {
	BlockIndex      int
	Timestamp       float64 // Block time, epoch seconds
	Latitude        float64
	Longitude       float64
	Altitude        float64
	Speed           float64
	Direction       float64
	BistaticRange   float64
	BistaticDoppler float64
	BistaticBearing float64
}

// ReferenceTrack is the ordered set of rows for one target. Rows[i] belongs
// to block StartIndex+i.
type ReferenceTrack struct {
	TargetID int
	Rows     []Row
}

// Sites holds the fixed receiver and illuminator positions.
type Sites struct {
	Radar       bistatic.Site
	Illuminator bistatic.Site
}

// Build assembles the reference track of one target. blockTimes and
// assigned are indexed by block offset from startIndex and must have equal
// length. geom is called once per block in index order with altitude in
// metres and speed in m/s.
func Build(targetID, startIndex int, blockTimes []float64, assigned []track.Point,
	sites Sites, wavelength float64, geom bistatic.Geometry) (*ReferenceTrack, error) {
	if len(blockTimes) != len(assigned) {
		return nil, fmt.Errorf("%w: %d block times for %d assigned samples",
			track.ErrValidation, len(blockTimes), len(assigned))
	}

	tr := &ReferenceTrack{TargetID: targetID, Rows: make([]Row, len(assigned))}
	for i, p := range assigned {
		sol := geom.Compute(sites.Radar, sites.Illuminator, bistatic.Target{
			Lat:          p.Lat,
			Lon:          p.Lon,
			AltitudeM:    units.FeetToMeters(p.Altitude),
			SpeedMPS:     units.KnotsToMPS(p.Speed),
			DirectionDeg: p.Direction,
		}, wavelength)

		tr.Rows[i] = Row{
			BlockIndex:      startIndex + i,
			Timestamp:       blockTimes[i],
			Latitude:        p.Lat,
			Longitude:       p.Lon,
			Altitude:        p.Altitude,
			Speed:           p.Speed,
			Direction:       p.Direction,
			BistaticRange:   sol.Range,
			BistaticDoppler: sol.Doppler,
			BistaticBearing: sol.Bearing,
		}
	}
	return tr, nil
}

// Values returns the row as the ten table columns in order.
func (r Row) Values() [Columns]float64 {
	return [Columns]float64{
		float64(r.BlockIndex), r.Timestamp, r.Latitude, r.Longitude, r.Altitude,
		r.Speed, r.Direction, r.BistaticRange, r.BistaticDoppler, r.BistaticBearing,
	}
}
