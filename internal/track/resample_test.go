package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleLinearUnitCadence(t *testing.T) {
	points := []Point{
		{Timestamp: 0, Lat: 0, Lon: 0, Altitude: 0, Speed: 0, Direction: 0},
		{Timestamp: 10, Lat: 1, Lon: 1, Altitude: 1000, Speed: 100, Direction: 90},
	}
	traj, err := Resample(points, 1)
	require.NoError(t, err)
	require.Equal(t, 11, traj.Len())

	for i, p := range traj.Points {
		want := float64(i) / 10
		assert.Equal(t, int64(i), p.Timestamp)
		assert.InDelta(t, want, p.Lat, 1e-9, "lat at %d", i)
		assert.InDelta(t, want, p.Lon, 1e-9, "lon at %d", i)
		assert.InDelta(t, want*1000, p.Altitude, 1e-9, "alt at %d", i)
		assert.InDelta(t, want*100, p.Speed, 1e-9, "speed at %d", i)
		assert.InDelta(t, want*90, p.Direction, 1e-9, "dir at %d", i)
	}
	assert.Equal(t, int64(0), traj.Start())
	assert.Equal(t, int64(10), traj.Stop())
}

func TestResampleUnevenSpacingWeightsByTime(t *testing.T) {
	points := []Point{
		{Timestamp: 100, Lat: 10},
		{Timestamp: 101, Lat: 11},
		{Timestamp: 105, Lat: 15},
	}
	traj, err := Resample(points, 1)
	require.NoError(t, err)
	require.Equal(t, 6, traj.Len())
	for i, p := range traj.Points {
		assert.InDelta(t, 10+float64(i), p.Lat, 1e-9)
	}
}

func TestResampleRounding(t *testing.T) {
	points := []Point{
		{Timestamp: 0, Lat: 46.1234561, Lon: 18.9876549, Altitude: 1000.04},
		{Timestamp: 1, Lat: 46.1234561, Lon: 18.9876549, Altitude: 1000.04},
	}
	traj, err := Resample(points, 1)
	require.NoError(t, err)
	p := traj.Points[0]
	assert.Equal(t, 46.123456, p.Lat)
	assert.Equal(t, 18.987655, p.Lon)
	assert.Equal(t, 1000.0, p.Altitude)
}

func TestResampleCubicPassesThroughPoints(t *testing.T) {
	points := []Point{
		{Timestamp: 0, Lat: 46.0, Lon: 18.0, Altitude: 1000, Speed: 200, Direction: 10},
		{Timestamp: 4, Lat: 46.1, Lon: 18.05, Altitude: 1500, Speed: 220, Direction: 20},
		{Timestamp: 9, Lat: 46.15, Lon: 18.2, Altitude: 1700, Speed: 250, Direction: 45},
		{Timestamp: 15, Lat: 46.3, Lon: 18.25, Altitude: 2500, Speed: 240, Direction: 60},
		{Timestamp: 20, Lat: 46.4, Lon: 18.4, Altitude: 3000, Speed: 260, Direction: 80},
	}
	for _, degree := range []int{2, 3, 4} {
		traj, err := Resample(points, degree)
		require.NoError(t, err, "degree %d", degree)
		require.Equal(t, 21, traj.Len())

		for _, in := range points {
			got := traj.Points[in.Timestamp]
			assert.Equal(t, in.Timestamp, got.Timestamp)
			assert.InDelta(t, in.Lat, got.Lat, 1e-6, "degree %d lat at %d", degree, in.Timestamp)
			assert.InDelta(t, in.Lon, got.Lon, 1e-6, "degree %d lon at %d", degree, in.Timestamp)
			assert.InDelta(t, in.Altitude, got.Altitude, 0.1, "degree %d alt at %d", degree, in.Timestamp)
			assert.InDelta(t, in.Speed, got.Speed, 1e-6, "degree %d speed at %d", degree, in.Timestamp)
			assert.InDelta(t, in.Direction, got.Direction, 1e-6, "degree %d dir at %d", degree, in.Timestamp)
		}
	}
}

func TestResampleCubicReproducesCubic(t *testing.T) {
	// A cubic in time, sampled at uneven times, must be reproduced exactly.
	f := func(x float64) float64 { return 0.001*x*x*x - 0.02*x*x + 0.5*x + 3 }
	stamps := []int64{0, 2, 3, 7, 12, 13, 20}
	points := make([]Point, len(stamps))
	for i, ts := range stamps {
		points[i] = Point{Timestamp: ts, Speed: f(float64(ts))}
	}
	traj, err := Resample(points, 3)
	require.NoError(t, err)
	for _, p := range traj.Points {
		assert.InDelta(t, f(float64(p.Timestamp)), p.Speed, 1e-8, "at %d", p.Timestamp)
	}
}

func TestResampleQuinticMinimumPoints(t *testing.T) {
	points := make([]Point, 6)
	for i := range points {
		points[i] = Point{Timestamp: int64(i * 2), Lat: math.Sin(float64(i))}
	}
	traj, err := Resample(points, 5)
	require.NoError(t, err)
	assert.Equal(t, 11, traj.Len())
}

func TestResampleValidation(t *testing.T) {
	two := []Point{{Timestamp: 0}, {Timestamp: 5}}

	_, err := Resample(two, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = Resample(two, 6)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Resample(two, 3)
	assert.ErrorIs(t, err, ErrValidation, "too few points for cubic")

	_, err = Resample([]Point{{Timestamp: 0}}, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Resample([]Point{{Timestamp: 7}, {Timestamp: 7}}, 1)
	assert.ErrorIs(t, err, ErrValidation, "zero elapsed time")

	_, err = Resample([]Point{{Timestamp: 0}, {Timestamp: 5}, {Timestamp: 5}, {Timestamp: 9}}, 1)
	assert.ErrorIs(t, err, ErrValidation, "duplicate timestamps")
}

func TestResampleColumnsLengthMismatch(t *testing.T) {
	ts := []int64{0, 1, 2}
	full := []float64{1, 2, 3}
	_, err := ResampleColumns(ts, full, full, []float64{1, 2}, full, full, 1)
	assert.ErrorIs(t, err, ErrValidation)

	traj, err := ResampleColumns(ts, full, full, full, full, full, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, traj.Len())
}

func TestInterpolationKnots(t *testing.T) {
	u := []float64{0, 0.1, 0.3, 0.6, 1}

	cubic := interpolationKnots(u, 3)
	assert.Equal(t, []float64{0, 0, 0, 0, 0.3, 1, 1, 1, 1}, cubic)

	quad := interpolationKnots(u, 2)
	assert.Len(t, quad, 8)
	assert.InDelta(t, 0.2, quad[3], 1e-12)
	assert.InDelta(t, 0.45, quad[4], 1e-12)
}
