package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/reftrack/internal/fsutil"
)

// FlightRadar24 export columns:
//
//	Timestamp,UTC,Callsign,Position,Altitude,Speed,Direction
//	1576755262,2019-12-19T11:34:22Z,LOT5KM,"52.142853,20.98628",1525,0,153
//
// Position is a quoted "lat,lon" pair. UTC and Callsign are not consumed.
const (
	colTimestamp = 0
	colCallsign  = 2
	colPosition  = 3
	colAltitude  = 4
	colSpeed     = 5
	colDirection = 6
	feedColumns  = 7
)

// FeedExt is the extension of feed exports in the target info directory.
const FeedExt = ".csv"

// Feed is one parsed tracking feed file.
type Feed struct {
	Path     string
	Callsign string
	Points   []Point
}

// ParseFeed reads a FlightRadar24 CSV export. The header line is skipped.
// Rows keep the file order; duplicate timestamps are not removed.
func ParseFeed(r io.Reader) (*Feed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	feed := &Feed{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 {
			continue
		}
		if len(rec) < feedColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, feedColumns, len(rec))
		}
		p, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if feed.Callsign == "" {
			feed.Callsign = strings.TrimSpace(rec[colCallsign])
		}
		feed.Points = append(feed.Points, p)
	}
	return feed, nil
}

func parseRow(rec []string) (Point, error) {
	var p Point
	ts, err := strconv.ParseInt(strings.TrimSpace(rec[colTimestamp]), 10, 64)
	if err != nil {
		return p, fmt.Errorf("timestamp: %w", err)
	}
	p.Timestamp = ts

	pos := strings.Trim(rec[colPosition], "\" ")
	latStr, lonStr, ok := strings.Cut(pos, ",")
	if !ok {
		return p, fmt.Errorf("position %q is not a lat,lon pair", rec[colPosition])
	}
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64); err != nil {
		return p, fmt.Errorf("latitude: %w", err)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64); err != nil {
		return p, fmt.Errorf("longitude: %w", err)
	}

	fields := []struct {
		dst  *float64
		col  int
		name string
	}{
		{&p.Altitude, colAltitude, "altitude"},
		{&p.Speed, colSpeed, "speed"},
		{&p.Direction, colDirection, "direction"},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[f.col]), 64)
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return p, nil
}

// ReadFeed opens and parses one feed file.
func ReadFeed(fsys fsutil.FileSystem, path string) (*Feed, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	defer f.Close()

	feed, err := ParseFeed(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", path, err)
	}
	feed.Path = path
	return feed, nil
}

// ListFeeds returns the sorted feed files in dir. The position in the list
// is the target id.
func ListFeeds(fsys fsutil.FileSystem, dir string) ([]string, error) {
	paths, err := fsys.Glob(filepath.Join(dir, "*"+FeedExt))
	if err != nil {
		return nil, fmt.Errorf("listing feeds in %s: %w", dir, err)
	}
	return paths, nil
}
