package frameanalysis

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
)

// PayloadReport is the result of reading every frame's IQ payload.
type PayloadReport struct {
	Checked   int
	Bad       []int // File indices whose payload is malformed or truncated
	NonFinite []int // File indices holding NaN or Inf samples
}

// CheckPayloads loads the full payload of each frame. Malformed or truncated
// payloads and payloads with non-finite samples are listed by file index;
// any other read error aborts the check.
func CheckPayloads(fsys fsutil.FileSystem, frames []Frame) (*PayloadReport, error) {
	r := &PayloadReport{}
	for _, f := range frames {
		fr, err := iqframe.ReadFrame(fsys, f.Path)
		if err != nil {
			if errors.Is(err, iqframe.ErrFormat) {
				log.Printf("[frameanalysis] warning: block %d: %v", f.Index, err)
				r.Bad = append(r.Bad, f.Index)
				r.Checked++
				continue
			}
			return nil, fmt.Errorf("checking payload of block %d: %w", f.Index, err)
		}
		r.Checked++
		if !finite(fr.Samples) {
			r.NonFinite = append(r.NonFinite, f.Index)
		}
	}
	return r, nil
}

func finite(samples [][]complex64) bool {
	for _, ch := range samples {
		for _, s := range ch {
			re, im := float64(real(s)), float64(imag(s))
			if math.IsNaN(re) || math.IsNaN(im) || math.IsInf(re, 0) || math.IsInf(im, 0) {
				return false
			}
		}
	}
	return true
}

// Summary returns the human readable findings of the payload check.
func (r *PayloadReport) Summary() []string {
	return []string{
		fmt.Sprintf("Payload statistics [bad/checked]: [%d/%d]", len(r.Bad), r.Checked),
		fmt.Sprintf("Payloads with non-finite samples: %d", len(r.NonFinite)),
	}
}
