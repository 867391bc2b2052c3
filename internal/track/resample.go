package track

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// MinDegree and MaxDegree bound the interpolation degree.
const (
	MinDegree = 1
	MaxDegree = 5
)

// Resample fits one parametric curve jointly through latitude, longitude,
// altitude, speed and direction and evaluates it every second from the first
// to the last timestamp inclusive.
//
// Each point's parameter is its elapsed time since the first point divided by
// the total elapsed time, so uneven report spacing is weighted by time rather
// than by point count. Degree 1 is piecewise-linear; higher degrees use an
// interpolating B-spline that passes through every input point.
// Latitude and longitude are rounded to 1e-6 deg and altitude to 0.1 ft.
func Resample(points []Point, degree int) (Trajectory, error) {
	n := len(points)
	ts := make([]int64, n)
	lat := make([]float64, n)
	lon := make([]float64, n)
	alt := make([]float64, n)
	speed := make([]float64, n)
	dir := make([]float64, n)
	for i, p := range points {
		ts[i] = p.Timestamp
		lat[i], lon[i], alt[i] = p.Lat, p.Lon, p.Altitude
		speed[i], dir[i] = p.Speed, p.Direction
	}
	return ResampleColumns(ts, lat, lon, alt, speed, dir, degree)
}

// ResampleColumns is Resample over column slices. It fails with
// ErrValidation when the columns differ in length.
func ResampleColumns(ts []int64, lat, lon, alt, speed, dir []float64, degree int) (Trajectory, error) {
	if degree < MinDegree || degree > MaxDegree {
		return Trajectory{}, fmt.Errorf("%w: degree %d out of [%d, %d]", ErrValidation, degree, MinDegree, MaxDegree)
	}
	cols := [][]float64{lat, lon, alt, speed, dir}
	for _, c := range cols {
		if len(c) != len(ts) {
			return Trajectory{}, fmt.Errorf("%w: column lengths differ (%d, %d, %d, %d, %d timestamps %d)",
				ErrValidation, len(lat), len(lon), len(alt), len(speed), len(dir), len(ts))
		}
	}
	n := len(ts)
	if n < degree+1 {
		return Trajectory{}, fmt.Errorf("%w: %d points cannot support degree %d", ErrValidation, n, degree)
	}

	u, total, err := timeParameter(ts)
	if err != nil {
		return Trajectory{}, err
	}

	samples := 1 + int(total)
	eval, err := curve(u, cols, degree)
	if err != nil {
		return Trajectory{}, err
	}

	out := make([]Point, samples)
	row := make([]float64, len(cols))
	for j := range out {
		x := 1.0
		if samples > 1 {
			x = float64(j) / float64(samples-1)
		}
		eval(x, row)
		out[j] = Point{
			Timestamp: ts[0] + int64(j),
			Lat:       roundTo(row[0], 1e6),
			Lon:       roundTo(row[1], 1e6),
			Altitude:  roundTo(row[2], 1e1),
			Speed:     row[3],
			Direction: row[4],
		}
	}
	return Trajectory{Points: out}, nil
}

// timeParameter returns the normalised cumulative elapsed time of each point
// and the total elapsed seconds.
func timeParameter(ts []int64) ([]float64, float64, error) {
	dt := make([]float64, len(ts))
	for i := 1; i < len(ts); i++ {
		dt[i] = float64(ts[i] - ts[i-1])
	}
	total := floats.Sum(dt)
	if total <= 0 {
		return nil, 0, fmt.Errorf("%w: zero elapsed time over %d points", ErrValidation, len(ts))
	}
	u := floats.CumSum(make([]float64, len(dt)), dt)
	floats.Scale(1/total, u)
	for i := 1; i < len(u); i++ {
		if !(u[i] > u[i-1]) {
			return nil, 0, fmt.Errorf("%w: timestamps not strictly increasing at %d (%d, %d)",
				ErrValidation, i, ts[i-1], ts[i])
		}
	}
	// Guard the right end against accumulated rounding.
	u[len(u)-1] = 1
	return u, total, nil
}

// curve returns an evaluator writing one value per column at parameter x.
func curve(u []float64, cols [][]float64, degree int) (func(x float64, dst []float64), error) {
	if degree == 1 {
		fits := make([]interp.PiecewiseLinear, len(cols))
		for c := range cols {
			if err := fits[c].Fit(u, cols[c]); err != nil {
				return nil, fmt.Errorf("%w: linear fit: %v", ErrValidation, err)
			}
		}
		return func(x float64, dst []float64) {
			for c := range fits {
				dst[c] = fits[c].Predict(x)
			}
		}, nil
	}

	ys := mat.NewDense(len(u), len(cols), nil)
	for c, col := range cols {
		ys.SetCol(c, col)
	}
	s, err := fitBSpline(u, ys, degree)
	if err != nil {
		return nil, err
	}
	return s.eval, nil
}

// roundTo rounds half to even at 1/scale resolution.
func roundTo(v, scale float64) float64 {
	return math.RoundToEven(v*scale) / scale
}
