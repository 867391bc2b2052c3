// Package measurement derives the block index range and the per-block time
// base of a recorded measurement from its IQ block headers.
package measurement

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrBadBlockName is returned when a block file name carries no integer index.
	ErrBadBlockName = errors.New("block file name has no index")

	// ErrNoBlocks is returned when no readable block is available.
	ErrNoBlocks = errors.New("no recorded blocks")
)

// BlockExt is the file extension of recorded IQ blocks.
const BlockExt = ".iqf"

// Block is the timing information of one recorded block.
type Block struct {
	Index     int
	Path      string
	TimeStamp uint64  // Raw header timestamp
	Seconds   float64 // TimeStamp converted to epoch seconds
	CenterHz  uint64  // Header rf_center_freq
}

// ParseBlockIndex extracts the block index from a file name: the integer
// after the last '_' of the base name without its extension. A base name
// without '_' is parsed whole, so "758.iqf" yields 758.
func ParseBlockIndex(name string) (int, error) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndexByte(base, '_'); i >= 0 {
		base = base[i+1:]
	}
	idx, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadBlockName, name)
	}
	return idx, nil
}
