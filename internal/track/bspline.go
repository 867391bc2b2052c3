package track

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// bspline is an interpolating parametric B-spline: several coordinate
// columns share one knot vector and one parameter.
//
// Knot placement follows the usual zero-smoothing choice for interpolation:
// k+1 repeated end knots, and for m data parameters u the m-k-1 interior
// knots are
//
//	odd k:  t[k+1+j] = u[j+(k+1)/2]
//	even k: t[k+1+j] = (u[j+k/2] + u[j+k/2+1]) / 2
//
// which satisfies the Schoenberg-Whitney conditions for strictly increasing u,
// so the collocation matrix is non-singular.
type bspline struct {
	k     int
	knots []float64
	coefs *mat.Dense // m x columns
}

func interpolationKnots(u []float64, k int) []float64 {
	m := len(u)
	t := make([]float64, m+k+1)
	for i := 0; i <= k; i++ {
		t[i] = u[0]
		t[m+i] = u[m-1]
	}
	for j := 0; j < m-k-1; j++ {
		if k%2 == 1 {
			t[k+1+j] = u[j+(k+1)/2]
		} else {
			t[k+1+j] = (u[j+k/2] + u[j+k/2+1]) / 2
		}
	}
	return t
}

// fitBSpline solves for the coefficients that make the degree-k curve pass
// through every row of ys at the matching parameter in u.
func fitBSpline(u []float64, ys *mat.Dense, k int) (*bspline, error) {
	m := len(u)
	if r, _ := ys.Dims(); r != m {
		return nil, fmt.Errorf("%w: %d parameters for %d rows", ErrValidation, m, r)
	}
	s := &bspline{k: k, knots: interpolationKnots(u, k)}

	a := mat.NewDense(m, m, nil)
	basis := make([]float64, k+1)
	for row, x := range u {
		span := s.span(x)
		s.basisFuncs(span, x, basis)
		for r, v := range basis {
			a.Set(row, span-k+r, v)
		}
	}

	var c mat.Dense
	if err := c.Solve(a, ys); err != nil {
		return nil, fmt.Errorf("%w: collocation solve: %v", ErrValidation, err)
	}
	s.coefs = &c
	return s, nil
}

// span returns l with t[l] <= x < t[l+1], k <= l < m, clamping x to the
// parameter range. The right end belongs to the last span.
func (s *bspline) span(x float64) int {
	m := len(s.knots) - s.k - 1
	if x >= s.knots[m] {
		return m - 1
	}
	if x <= s.knots[s.k] {
		return s.k
	}
	// First knot strictly greater than x, minus one.
	l := sort.Search(len(s.knots), func(i int) bool { return s.knots[i] > x }) - 1
	if l > m-1 {
		l = m - 1
	}
	return l
}

// basisFuncs fills n with the k+1 non-zero basis functions at x on span l
// (Cox-de Boor, triangular form).
func (s *bspline) basisFuncs(l int, x float64, n []float64) {
	k, t := s.k, s.knots
	left := make([]float64, k+1)
	right := make([]float64, k+1)
	n[0] = 1
	for j := 1; j <= k; j++ {
		left[j] = x - t[l+1-j]
		right[j] = t[l+j] - x
		saved := 0.0
		for r := 0; r < j; r++ {
			temp := n[r] / (right[r+1] + left[j-r])
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
}

// eval writes the curve value at x into dst, one entry per column.
func (s *bspline) eval(x float64, dst []float64) {
	l := s.span(x)
	basis := make([]float64, s.k+1)
	s.basisFuncs(l, x, basis)
	for c := range dst {
		v := 0.0
		for r, b := range basis {
			v += b * s.coefs.At(l-s.k+r, c)
		}
		dst[c] = v
	}
}
