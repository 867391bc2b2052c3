// Package testutil provides shared test utilities and fixtures.
//
// This package centralises recorded-block and feed fixtures so the
// measurement, track and reftrack tests build their inputs the same way.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// BlockHeader returns a synced data-frame header stamped with ts.
func BlockHeader(ts uint64, cpiIndex uint32) *iqframe.FrameHeader {
	return &iqframe.FrameHeader{
		HeaderVersion:   7,
		FrameType:       iqframe.FrameTypeData,
		HardwareID:      "KRAKEN",
		UnitID:          1,
		ActiveAntChs:    5,
		RFCenterFreq:    90_300_000,
		ADCSamplingFreq: 2_400_000,
		SamplingFreq:    2_400_000,
		CPILength:       1024,
		TimeStamp:       ts,
		CPIIndex:        cpiIndex,
		SampleBitDepth:  32,
		DelaySyncFlag:   1,
		IQSyncFlag:      1,
		SyncState:       6,
	}
}

// BlockName formats a recorded block file name with the campaign prefix.
func BlockName(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("VEGAM20191219K4C0S9_%d.iqf", index))
}

// WriteBlock stores a header-only block in m.
func WriteBlock(m *fsutil.MemoryFileSystem, dir string, index int, h *iqframe.FrameHeader) string {
	name := BlockName(dir, index)
	m.WriteFile(name, iqframe.Encode(h))
	return name
}

// WriteBlocks stores one block per index, stamped with the matching timestamp.
func WriteBlocks(m *fsutil.MemoryFileSystem, dir string, indices []int, stamps []uint64) []string {
	if len(indices) != len(stamps) {
		panic("testutil: indices and stamps differ in length")
	}
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = WriteBlock(m, dir, idx, BlockHeader(stamps[i], uint32(idx)))
	}
	return names
}

// FeedRow is one FlightRadar24 export row.
type FeedRow struct {
	Timestamp int64
	Lat, Lon  float64
	Altitude  int
	Speed     int
	Direction int
}

// FeedCSV renders rows in the FlightRadar24 export format.
func FeedCSV(callsign string, rows []FeedRow) string {
	var b strings.Builder
	b.WriteString("Timestamp,UTC,Callsign,Position,Altitude,Speed,Direction\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%d,2019-12-19T11:34:22Z,%s,\"%g,%g\",%d,%d,%d\n",
			r.Timestamp, callsign, r.Lat, r.Lon, r.Altitude, r.Speed, r.Direction)
	}
	return b.String()
}

// LinearFeed returns n rows one step apart, climbing and moving north-east.
func LinearFeed(start int64, step int64, n int) []FeedRow {
	rows := make([]FeedRow, n)
	for i := range rows {
		rows[i] = FeedRow{
			Timestamp: start + int64(i)*step,
			Lat:       46.7 + 0.001*float64(i),
			Lon:       18.5 + 0.001*float64(i),
			Altitude:  10000 + 100*i,
			Speed:     400,
			Direction: 45,
		}
	}
	return rows
}
