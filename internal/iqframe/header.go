// Package iqframe decodes and encodes the fixed-size header that precedes
// every recorded IQ block (.iqf file) of a passive radar measurement.
//
// The header is the only clock reference of a measurement: its time_stamp
// field is what aligns recorded blocks with the external tracking feed.
package iqframe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// IQ frame header constants. The layout must stay byte-for-byte compatible
// with existing recorded archives.
const (
	HEADER_SIZE      = 1024 // Encoded header size in bytes, independent of active channels
	HARDWARE_ID_SIZE = 16   // Fixed width of the hardware identity text
	MAX_CHANNELS     = 32   // Number of IF gain slots (one per possible channel)
	RESERVED_WORDS   = 193  // Trailing reserved uint32 words
)

// Frame types written by the data acquisition firmware.
const (
	FrameTypeData        uint32 = 0
	FrameTypeDummy       uint32 = 1
	FrameTypeRamp        uint32 = 2
	FrameTypeCalibration uint32 = 3
	FrameTypeTriggerWait uint32 = 4
)

// ErrFormat is returned when a byte sequence is not a well-formed header or
// a block file is truncated.
var ErrFormat = errors.New("malformed IQ frame")

// FrameHeader is the decoded header of one recorded block.
type FrameHeader struct {
	HeaderVersion      uint32
	FrameType          uint32
	HardwareID         string // Unit identity, at most 16 bytes
	UnitID             uint32
	ActiveAntChs       uint32 // Number of active antenna channels
	IOOType            uint32 // Illuminator of opportunity type
	RFCenterFreq       uint64 // Hz
	ADCSamplingFreq    uint64 // Hz
	SamplingFreq       uint64 // Hz, after decimation
	CPILength          uint32 // Samples per block per channel
	TimeStamp          uint64 // Absolute block time, same epoch and unit across a measurement
	CPIIndex           uint32 // Acquisition counter, independent of the file index
	ExtIntegrationCntr uint64
	DataType           uint32
	SampleBitDepth     uint32
	ADCOverdriveFlags  uint32               // Bit m set = channel m overdriven
	IFGains            [MAX_CHANNELS]uint32 // Tenths of dB
	DelaySyncFlag      uint32
	IQSyncFlag         uint32
	SyncState          uint32
	NoiseSourceState   uint32
}

// Decode parses a 1024-byte header. It fails with ErrFormat when b has the
// wrong length or a field cannot be read; there is no partial decode.
func Decode(b []byte) (*FrameHeader, error) {
	if len(b) != HEADER_SIZE {
		return nil, fmt.Errorf("%w: header must be %d bytes, got %d", ErrFormat, HEADER_SIZE, len(b))
	}

	h := &FrameHeader{}
	for _, f := range headerLayout {
		if f.Offset+f.Width > len(b) {
			return nil, fmt.Errorf("%w: field %s overruns header", ErrFormat, f.Name)
		}
		raw := b[f.Offset : f.Offset+f.Width]

		switch {
		case f.u32 != nil:
			*f.u32(h) = binary.LittleEndian.Uint32(raw)
		case f.u64 != nil:
			*f.u64(h) = binary.LittleEndian.Uint64(raw)
		case f.text != nil:
			id, err := decodeText(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrFormat, f.Name, err)
			}
			*f.text(h) = id
		case f.words != nil:
			words := f.words(h)
			for i := range words {
				words[i] = binary.LittleEndian.Uint32(raw[i*4:])
			}
		}
	}

	tracef("decoded header: cpi_index=%d time_stamp=%d", h.CPIIndex, h.TimeStamp)
	return h, nil
}

// Encode serialises h into exactly HEADER_SIZE bytes. Alignment gaps and
// the reserved tail are zero-filled; a hardware id longer than 16 bytes is
// truncated.
func Encode(h *FrameHeader) []byte {
	b := make([]byte, HEADER_SIZE)
	for _, f := range headerLayout {
		raw := b[f.Offset : f.Offset+f.Width]

		switch {
		case f.u32 != nil:
			binary.LittleEndian.PutUint32(raw, *f.u32(h))
		case f.u64 != nil:
			binary.LittleEndian.PutUint64(raw, *f.u64(h))
		case f.text != nil:
			copy(raw, *f.text(h))
		case f.words != nil:
			for i, w := range f.words(h) {
				binary.LittleEndian.PutUint32(raw[i*4:], w)
			}
		}
	}
	return b
}

// decodeText returns the NUL-terminated UTF-8 text held in raw.
func decodeText(raw []byte) (string, error) {
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		raw = raw[:i]
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("invalid UTF-8 text %q", raw)
	}
	return string(raw), nil
}

// MaxSampleBitDepth bounds sample_bit_depth when sizing a payload.
const MaxSampleBitDepth = 64

// PayloadSize returns the number of payload bytes following the header:
// cpi_length * active_ant_chs * 2 * sample_bit_depth / 8. It fails with
// ErrFormat when the channel count is outside 1..MAX_CHANNELS or the CPI
// length or bit depth is zero or out of range, which keeps the product
// well inside int64.
func PayloadSize(h *FrameHeader) (int64, error) {
	if h.ActiveAntChs == 0 || h.ActiveAntChs > MAX_CHANNELS {
		return 0, fmt.Errorf("%w: active_ant_chs %d outside 1..%d", ErrFormat, h.ActiveAntChs, MAX_CHANNELS)
	}
	if h.CPILength == 0 {
		return 0, fmt.Errorf("%w: cpi_length is zero", ErrFormat)
	}
	if h.SampleBitDepth == 0 || h.SampleBitDepth > MaxSampleBitDepth {
		return 0, fmt.Errorf("%w: sample_bit_depth %d outside 1..%d", ErrFormat, h.SampleBitDepth, MaxSampleBitDepth)
	}
	return int64(h.CPILength) * int64(h.ActiveAntChs) * 2 * int64(h.SampleBitDepth) / 8, nil
}

// OverdrivenChannels lists the active channels whose overdrive bit is set.
func OverdrivenChannels(h *FrameHeader) []int {
	var chs []int
	for m := 0; m < int(h.ActiveAntChs) && m < MAX_CHANNELS; m++ {
		if h.ADCOverdriveFlags&(1<<uint(m)) != 0 {
			chs = append(chs, m)
		}
	}
	return chs
}

// IsSynced reports whether both the sample delay and the IQ phase
// synchronisation were locked when the block was recorded.
func (h *FrameHeader) IsSynced() bool {
	return h.DelaySyncFlag != 0 && h.IQSyncFlag != 0
}
