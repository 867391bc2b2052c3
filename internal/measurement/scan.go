package measurement

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/timeutil"
)

// ListBlocks returns the sorted block file paths under dir.
func ListBlocks(fsys fsutil.FileSystem, dir string) ([]string, error) {
	paths, err := fsys.Glob(filepath.Join(dir, "*"+BlockExt))
	if err != nil {
		return nil, fmt.Errorf("listing blocks in %s: %w", dir, err)
	}
	return paths, nil
}

// Scan reads the header of every block in paths once and reduces them to a
// Timeline. Blocks with an unparseable name or a malformed header are logged
// and skipped. Timestamps are converted to seconds using unit ("s", "ms",
// "us" or "ns"). ErrNoBlocks is returned when no block survives.
func Scan(fsys fsutil.FileSystem, paths []string, unit string) (Timeline, error) {
	blocks := make([]Block, 0, len(paths))
	for _, p := range paths {
		idx, err := ParseBlockIndex(p)
		if err != nil {
			log.Printf("[timeline] warning: skipping %s: %v", p, err)
			continue
		}
		h, err := iqframe.ReadHeader(fsys, p)
		if err != nil {
			if errors.Is(err, iqframe.ErrFormat) {
				log.Printf("[timeline] warning: skipping malformed block %s: %v", p, err)
			} else {
				log.Printf("[timeline] warning: skipping unreadable block %s: %v", p, err)
			}
			continue
		}
		blocks = append(blocks, Block{
			Index:     idx,
			Path:      p,
			TimeStamp: h.TimeStamp,
			Seconds:   timeutil.EpochSeconds(h.TimeStamp, unit),
			CenterHz:  h.RFCenterFreq,
		})
	}

	tl, err := Reduce(blocks)
	if err != nil {
		return Timeline{}, fmt.Errorf("scanned %d files: %w", len(paths), err)
	}
	log.Printf("[timeline] start file index: %d", tl.StartIndex)
	log.Printf("[timeline] stop file index: %d", tl.StopIndex)
	log.Printf("[timeline] first time stamp: %d", tl.StartTime)
	log.Printf("[timeline] last time stamp: %d", tl.StopTime)
	return tl, nil
}

// ScanDir lists the blocks under dir and scans them.
func ScanDir(fsys fsutil.FileSystem, dir, unit string) (Timeline, error) {
	paths, err := ListBlocks(fsys, dir)
	if err != nil {
		return Timeline{}, err
	}
	return Scan(fsys, paths, unit)
}
