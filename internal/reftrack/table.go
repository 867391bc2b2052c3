package reftrack

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/reftrack/internal/fsutil"
)

// Reference track table format: one row per block, ten space-separated
// columns, every value written as %.18e, no header.
//
//	+-------+-----------+-----+-----+-----+-------+-----+-------+---------+---------+
//	| block | timestamp | lat | lon | alt | speed | dir | range | doppler | bearing |
//	+-------+-----------+-----+-----+-----+-------+-----+-------+---------+---------+

// WriteTable writes the rows of tr to w.
func WriteTable(w io.Writer, tr *ReferenceTrack) error {
	bw := bufio.NewWriter(w)
	for _, r := range tr.Rows {
		vals := r.Values()
		for i, v := range vals {
			if i > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatFloat(v, 'e', 18, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadTable parses a table written by WriteTable. Blank lines are skipped.
func ReadTable(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != Columns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, Columns, len(fields))
		}
		var vals [Columns]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}
		if vals[0] != math.Trunc(vals[0]) {
			return nil, fmt.Errorf("line %d: block index %v is not an integer", line, vals[0])
		}
		rows = append(rows, Row{
			BlockIndex:      int(vals[0]),
			Timestamp:       vals[1],
			Latitude:        vals[2],
			Longitude:       vals[3],
			Altitude:        vals[4],
			Speed:           vals[5],
			Direction:       vals[6],
			BistaticRange:   vals[7],
			BistaticDoppler: vals[8],
			BistaticBearing: vals[9],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveTable writes tr to path on fsys.
func SaveTable(fsys fsutil.FileSystem, path string, tr *ReferenceTrack) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTable(f, tr); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// LoadTable reads the table at path on fsys.
func LoadTable(fsys fsutil.FileSystem, path string) ([]Row, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}
