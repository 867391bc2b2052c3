package track

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointsAt(stamps ...int64) []Point {
	out := make([]Point, len(stamps))
	for i, ts := range stamps {
		out[i] = Point{Timestamp: ts, Lat: float64(i), Lon: float64(i), Altitude: float64(100 * i)}
	}
	return out
}

func stampsOf(points []Point) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.Timestamp
	}
	return out
}

func TestExtractWindowPadsBothSides(t *testing.T) {
	feed := pointsAt(0, 10, 20, 30, 40)
	w, err := ExtractWindow(feed, 12, 28, WindowOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff([]int64{10, 20, 30}, stampsOf(w.Points)); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, w.PaddedBefore)
	assert.True(t, w.PaddedAfter)
	assert.False(t, w.Clamped())
}

func TestExtractWindowInclusiveBounds(t *testing.T) {
	feed := pointsAt(0, 10, 20, 30, 40)
	w, err := ExtractWindow(feed, 10, 30, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 20, 30, 40}, stampsOf(w.Points))
}

func TestExtractWindowClampsAtFeedStart(t *testing.T) {
	feed := pointsAt(10, 20, 30, 40)
	w, err := ExtractWindow(feed, 5, 25, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, stampsOf(w.Points))
	assert.False(t, w.PaddedBefore)
	assert.True(t, w.PaddedAfter)
}

func TestExtractWindowClampsAtFeedEnd(t *testing.T) {
	feed := pointsAt(0, 10, 20, 30)
	w, err := ExtractWindow(feed, 15, 35, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, stampsOf(w.Points))
	assert.True(t, w.PaddedBefore)
	assert.False(t, w.PaddedAfter)
	assert.True(t, w.Clamped())
}

func TestExtractWindowStrictPadding(t *testing.T) {
	feed := pointsAt(0, 10, 20, 30)

	_, err := ExtractWindow(feed, 15, 35, WindowOptions{StrictPadding: true})
	assert.True(t, errors.Is(err, ErrBounds))

	_, err = ExtractWindow(feed, 0, 15, WindowOptions{StrictPadding: true})
	assert.True(t, errors.Is(err, ErrBounds))

	w, err := ExtractWindow(feed, 5, 25, WindowOptions{StrictPadding: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 20, 30}, stampsOf(w.Points))
}

func TestExtractWindowEmpty(t *testing.T) {
	feed := pointsAt(0, 10, 20)
	_, err := ExtractWindow(feed, 11, 19, WindowOptions{})
	assert.ErrorIs(t, err, ErrEmptyWindow)

	_, err = ExtractWindow(nil, 0, 100, WindowOptions{})
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestExtractWindowKeepsDuplicates(t *testing.T) {
	feed := pointsAt(0, 10, 10, 20, 30)
	w, err := ExtractWindow(feed, 10, 20, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 10, 20, 30}, stampsOf(w.Points))
}

func TestExtractWindowCopiesPoints(t *testing.T) {
	feed := pointsAt(0, 10, 20)
	w, err := ExtractWindow(feed, 5, 15, WindowOptions{})
	require.NoError(t, err)
	w.Points[0].Lat = 99
	assert.Equal(t, 0.0, feed[0].Lat)
}
