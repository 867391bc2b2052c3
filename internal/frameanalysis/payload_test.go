package frameanalysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/testutil"
)

func TestCheckPayloads(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	h := testutil.BlockHeader(1_576_800_000, 1)

	good := [][]complex64{{1, 2}, {complex(0, 1), 4}}
	m.WriteFile(testutil.BlockName("iq", 1), iqframe.EncodeFrame(h, good))

	full := iqframe.EncodeFrame(h, good)
	m.WriteFile(testutil.BlockName("iq", 2), full[:len(full)-5])

	nan := [][]complex64{{complex(float32(math.NaN()), 0), 1}}
	m.WriteFile(testutil.BlockName("iq", 3), iqframe.EncodeFrame(h, nan))

	corrupt := *h
	corrupt.ActiveAntChs = 0xFFFFFFFF
	m.WriteFile(testutil.BlockName("iq", 4), iqframe.Encode(&corrupt))

	frames, _, err := Load(m, []string{
		testutil.BlockName("iq", 1), testutil.BlockName("iq", 2),
		testutil.BlockName("iq", 3), testutil.BlockName("iq", 4),
	}, Options{})
	require.NoError(t, err)

	r, err := CheckPayloads(m, frames)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Checked)
	assert.Equal(t, []int{2, 4}, r.Bad)
	assert.Equal(t, []int{3}, r.NonFinite)
	assert.Contains(t, strings.Join(r.Summary(), "\n"), "Payload statistics [bad/checked]: [2/4]")
}

func TestCheckPayloadsMissingFile(t *testing.T) {
	m := fsutil.NewMemoryFileSystem()
	_, err := CheckPayloads(m, []Frame{{Index: 7, Path: "iq/gone_7.iqf"}})
	assert.Error(t, err)
}
