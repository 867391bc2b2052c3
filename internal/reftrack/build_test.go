package reftrack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/reftrack/internal/bistatic"
	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/track"
)

// recordingGeometry returns the call number as the bistatic values and keeps
// the targets it was asked about.
type recordingGeometry struct {
	calls []bistatic.Target
}

func (g *recordingGeometry) Compute(radar, ill bistatic.Site, t bistatic.Target, wavelength float64) bistatic.Solution {
	g.calls = append(g.calls, t)
	n := float64(len(g.calls))
	return bistatic.Solution{Range: 1000 * n, Doppler: -n, Bearing: wavelength}
}

func TestBuildRowsAndConversions(t *testing.T) {
	assigned := []track.Point{
		{Timestamp: 100, Lat: 46.7, Lon: 18.5, Altitude: 10000, Speed: 400, Direction: 45},
		{Timestamp: 101, Lat: 46.8, Lon: 18.6, Altitude: 10100, Speed: 410, Direction: 46},
		{Timestamp: 101, Lat: 46.8, Lon: 18.6, Altitude: 10100, Speed: 410, Direction: 46},
	}
	geom := &recordingGeometry{}
	tr, err := Build(3, 57, []float64{100.1, 100.9, 101.3}, assigned, Sites{}, 3.32, geom)
	require.NoError(t, err)

	assert.Equal(t, 3, tr.TargetID)
	require.Len(t, tr.Rows, 3)
	for i, r := range tr.Rows {
		assert.Equal(t, 57+i, r.BlockIndex)
		assert.Equal(t, float64(1000*(i+1)), r.BistaticRange, "geometry called in index order")
		assert.Equal(t, 3.32, r.BistaticBearing)
	}
	assert.Equal(t, 100.9, tr.Rows[1].Timestamp)
	assert.Equal(t, 10000.0, tr.Rows[0].Altitude, "rows keep feed units")

	require.Len(t, geom.calls, 3)
	assert.InDelta(t, 3048.0, geom.calls[0].AltitudeM, 1e-9)
	assert.InDelta(t, 205.777777776, geom.calls[0].SpeedMPS, 1e-6)
	assert.Equal(t, 45.0, geom.calls[0].DirectionDeg)
}

func TestBuildLengthMismatch(t *testing.T) {
	_, err := Build(0, 0, []float64{1, 2}, []track.Point{{}}, Sites{}, 1, bistatic.WGS84{})
	assert.ErrorIs(t, err, track.ErrValidation)
}

func TestBuildReturnsIndependentTracks(t *testing.T) {
	geom := &recordingGeometry{}
	a, err := Build(0, 0, []float64{1}, []track.Point{{Lat: 1}}, Sites{}, 1, geom)
	require.NoError(t, err)
	b, err := Build(1, 0, []float64{1}, []track.Point{{Lat: 2}}, Sites{}, 1, geom)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Rows[0].Latitude)
	assert.Equal(t, 2.0, b.Rows[0].Latitude)
}

func sampleTrack() *ReferenceTrack {
	return &ReferenceTrack{TargetID: 0, Rows: []Row{
		{BlockIndex: 5, Timestamp: 1576755262, Latitude: 46.712345, Longitude: 18.512345, Altitude: 10000.5, Speed: 400, Direction: 45, BistaticRange: 12345.678, BistaticDoppler: -35.25, BistaticBearing: -12.5},
		{BlockIndex: 6, Timestamp: 1576755263, Latitude: 46.7124, Longitude: 18.5124, Altitude: 10010, Speed: 401, Direction: 45.5, BistaticRange: 12400.1, BistaticDoppler: -35.3, BistaticBearing: -12.4},
	}}
}

func TestWriteTableFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleTrack()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[0], " ")
	require.Len(t, fields, Columns)
	assert.Equal(t, "5.000000000000000000e+00", fields[0])
	assert.Equal(t, "1.576755262000000000e+09", fields[1])
	assert.Equal(t, "-3.525000000000000000e+01", fields[8])
}

func TestTableRoundTrip(t *testing.T) {
	tr := sampleTrack()
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tr))

	rows, err := ReadTable(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(tr.Rows, rows); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTableErrors(t *testing.T) {
	_, err := ReadTable(strings.NewReader("1 2 3\n"))
	assert.Error(t, err)

	_, err = ReadTable(strings.NewReader("1 2 3 4 5 6 7 8 9 x\n"))
	assert.Error(t, err)

	_, err = ReadTable(strings.NewReader("1.5 2 3 4 5 6 7 8 9 10\n"))
	assert.Error(t, err)

	rows, err := ReadTable(strings.NewReader("\n1 2 3 4 5 6 7 8 9 10\n\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSaveLoadTable(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, SaveTable(m, "target_info/target_ref_track_0.trt", sampleTrack()))
	rows, err := LoadTable(m, "target_info/target_ref_track_0.trt")
	require.NoError(t, err)
	assert.Equal(t, sampleTrack().Rows, rows)

	_, err = LoadTable(m, "missing.trt")
	assert.Error(t, err)
}

func TestSavePlot(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, SavePlot(m, "plot.png", sampleTrack()))
	data, err := m.ReadFile("plot.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "expected PNG signature")

	assert.Error(t, SavePlot(m, "empty.png", &ReferenceTrack{}))
}
