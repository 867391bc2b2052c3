// Package bistatic computes the bistatic range, Doppler and bearing of a
// target seen by a passive radar receiver using an illuminator of opportunity.
package bistatic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS84 ellipsoid parameters.
const (
	WGS84_A = 6378137.0         // Semi-major axis, m
	WGS84_F = 1 / 298.257223563 // Flattening
)

var wgs84E2 = WGS84_F * (2 - WGS84_F)

// Site is a fixed antenna location.
type Site struct {
	Lat        float64 // deg
	Lon        float64 // deg
	ElevationM float64 // Height above the ellipsoid, m
	BearingDeg float64 // Boresight, deg clockwise from north (receiver only)
}

// Target is the kinematic state of the observed target in SI units.
type Target struct {
	Lat          float64 // deg
	Lon          float64 // deg
	AltitudeM    float64 // m
	SpeedMPS     float64 // Ground speed, m/s
	DirectionDeg float64 // Course over ground, deg clockwise from north
}

// Solution is what the radar observes for one target state.
type Solution struct {
	Range   float64 // Bistatic range R_tx + R_rx - baseline, m
	Doppler float64 // Hz, negative for an opening bistatic range
	Bearing float64 // deg relative to the receiver boresight, (-180, 180]
}

// Geometry computes the bistatic observables of a target.
type Geometry interface {
	Compute(radar, illuminator Site, target Target, wavelength float64) Solution
}

// WGS84 is a Geometry working in Earth-centred Earth-fixed coordinates on
// the WGS84 ellipsoid. Target velocity is horizontal.
type WGS84 struct{}

// Compute implements Geometry.
func (WGS84) Compute(radar, illuminator Site, target Target, wavelength float64) Solution {
	rx := ECEF(radar.Lat, radar.Lon, radar.ElevationM)
	tx := ECEF(illuminator.Lat, illuminator.Lon, illuminator.ElevationM)
	tg := ECEF(target.Lat, target.Lon, target.AltitudeM)

	toTarget := r3.Sub(tg, tx)
	fromRadar := r3.Sub(tg, rx)
	rTx := r3.Norm(toTarget)
	rRx := r3.Norm(fromRadar)
	baseline := r3.Norm(r3.Sub(rx, tx))

	var sol Solution
	sol.Range = rTx + rRx - baseline

	v := Velocity(target.Lat, target.Lon, target.SpeedMPS, target.DirectionDeg)
	var los r3.Vec
	if rTx > 0 {
		los = r3.Add(los, r3.Scale(1/rTx, toTarget))
	}
	if rRx > 0 {
		los = r3.Add(los, r3.Scale(1/rRx, fromRadar))
	}
	if wavelength > 0 {
		sol.Doppler = -r3.Dot(v, los) / wavelength
	}

	east, north, _ := enuBasis(radar.Lat, radar.Lon)
	az := math.Atan2(r3.Dot(fromRadar, east), r3.Dot(fromRadar, north)) * 180 / math.Pi
	sol.Bearing = WrapDegrees(az - radar.BearingDeg)
	return sol
}

// ECEF converts geodetic coordinates to Earth-centred Earth-fixed metres.
func ECEF(latDeg, lonDeg, h float64) r3.Vec {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := WGS84_A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	return r3.Vec{
		X: (n + h) * cosLat * cosLon,
		Y: (n + h) * cosLat * sinLon,
		Z: (n*(1-wgs84E2) + h) * sinLat,
	}
}

// Velocity converts a horizontal speed and course at a location to an ECEF
// velocity vector.
func Velocity(latDeg, lonDeg, speed, courseDeg float64) r3.Vec {
	east, north, _ := enuBasis(latDeg, lonDeg)
	s, c := math.Sincos(courseDeg * math.Pi / 180)
	return r3.Add(r3.Scale(speed*s, east), r3.Scale(speed*c, north))
}

// enuBasis returns the local east, north and up unit vectors in ECEF.
func enuBasis(latDeg, lonDeg float64) (east, north, up r3.Vec) {
	sinLat, cosLat := math.Sincos(latDeg * math.Pi / 180)
	sinLon, cosLon := math.Sincos(lonDeg * math.Pi / 180)
	east = r3.Vec{X: -sinLon, Y: cosLon}
	north = r3.Vec{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	up = r3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	return east, north, up
}

// WrapDegrees maps an angle onto (-180, 180].
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
