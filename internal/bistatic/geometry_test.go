package bistatic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	radarSite = Site{Lat: 46.678105, Lon: 18.423188, ElevationM: 106, BearingDeg: 81}
	iooSite   = Site{Lat: 46.5911111, Lon: 18.5791667, ElevationM: 298}
)

func TestECEFKnownPoints(t *testing.T) {
	eq := ECEF(0, 0, 0)
	assert.InDelta(t, WGS84_A, eq.X, 1e-6)
	assert.InDelta(t, 0, eq.Y, 1e-6)
	assert.InDelta(t, 0, eq.Z, 1e-6)

	pole := ECEF(90, 0, 0)
	b := WGS84_A * (1 - WGS84_F)
	assert.InDelta(t, b, pole.Z, 1e-6)
	assert.InDelta(t, 0, pole.X, 1e-6)

	up := ECEF(0, 90, 100)
	assert.InDelta(t, WGS84_A+100, up.Y, 1e-6)
}

func TestRangeOnBaselineIsZero(t *testing.T) {
	// A target halfway along the straight baseline adds no path length.
	mid := Target{
		Lat:       (radarSite.Lat + iooSite.Lat) / 2,
		Lon:       (radarSite.Lon + iooSite.Lon) / 2,
		AltitudeM: (radarSite.ElevationM + iooSite.ElevationM) / 2,
	}
	sol := WGS84{}.Compute(radarSite, iooSite, mid, 3.32)
	assert.InDelta(t, 0, sol.Range, 5, "range on the baseline should be near zero")
	assert.GreaterOrEqual(t, sol.Range, -1e-6)
}

func TestRangeMonostaticLimit(t *testing.T) {
	// Co-located sites: bistatic range is twice the one-way distance.
	site := Site{Lat: 47, Lon: 19}
	target := Target{Lat: 47.1, Lon: 19, AltitudeM: 0}
	sol := WGS84{}.Compute(site, site, target, 1)
	oneWay := r3.Norm(r3.Sub(ECEF(47.1, 19, 0), ECEF(47, 19, 0)))
	assert.InDelta(t, 2*oneWay, sol.Range, 1e-6)
}

func TestDopplerSign(t *testing.T) {
	site := Site{Lat: 47, Lon: 19}
	north := Target{Lat: 47.1, Lon: 19, AltitudeM: 0, SpeedMPS: 100}

	receding := north
	receding.DirectionDeg = 0
	sol := WGS84{}.Compute(site, site, receding, 3)
	assert.Less(t, sol.Doppler, 0.0, "opening range gives negative Doppler")
	// Monostatic, radial motion: fD close to -2v/lambda.
	assert.InDelta(t, -2*100/3.0, sol.Doppler, 0.5)

	approaching := north
	approaching.DirectionDeg = 180
	sol = WGS84{}.Compute(site, site, approaching, 3)
	assert.Greater(t, sol.Doppler, 0.0)

	tangential := north
	tangential.DirectionDeg = 90
	sol = WGS84{}.Compute(site, site, tangential, 3)
	assert.InDelta(t, 0, sol.Doppler, 0.5)
}

func TestDopplerZeroForStationaryTarget(t *testing.T) {
	sol := WGS84{}.Compute(radarSite, iooSite, Target{Lat: 46.8, Lon: 18.6, AltitudeM: 3000}, 3.32)
	assert.Equal(t, 0.0, sol.Doppler)
	assert.Greater(t, sol.Range, 0.0)
}

func TestBearingRelativeToBoresight(t *testing.T) {
	site := Site{Lat: 47, Lon: 19, BearingDeg: 0}
	east := Target{Lat: 47, Lon: 19.1}
	sol := WGS84{}.Compute(site, site, east, 1)
	assert.InDelta(t, 90, sol.Bearing, 0.1)

	site.BearingDeg = 81
	sol = WGS84{}.Compute(site, site, east, 1)
	assert.InDelta(t, 9, sol.Bearing, 0.1)

	west := Target{Lat: 47, Lon: 18.9}
	sol = WGS84{}.Compute(site, site, west, 1)
	assert.InDelta(t, -171, sol.Bearing, 0.1)
}

func TestWrapDegrees(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		180:  180,
		-180: 180,
		181:  -179,
		-181: 179,
		540:  180,
		-350: 10,
		725:  5,
	}
	for in, want := range tests {
		assert.InDelta(t, want, WrapDegrees(in), 1e-9, "WrapDegrees(%v)", in)
	}
}

func TestVelocityIsHorizontal(t *testing.T) {
	v := Velocity(46.7, 18.4, 200, 45)
	assert.InDelta(t, 200, r3.Norm(v), 1e-9)
	_, _, up := enuBasis(46.7, 18.4)
	assert.InDelta(t, 0, r3.Dot(v, up), 1e-9)
	assert.False(t, math.IsNaN(v.X))
}
