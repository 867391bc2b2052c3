package iqframe

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/reftrack/internal/fsutil"
)

// Frame is a decoded block: header plus the per-channel complex baseband
// samples, laid out channel-major (Samples[channel][sample]).
type Frame struct {
	Header  *FrameHeader
	Samples [][]complex64
}

// ReadHeader opens path, decodes its 1024-byte header and closes the file.
// The payload is not read.
func ReadHeader(fsys fsutil.FileSystem, path string) (*FrameHeader, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, HEADER_SIZE)
	if _, err := io.ReadFull(f, buf); err != nil {
		opsf("short header in %s: %v", path, err)
		return nil, fmt.Errorf("%w: %s: reading header: %v", ErrFormat, path, err)
	}

	h, err := Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// ReadFrame reads the header and the payload of one block. Only 32-bit
// sample depth (interleaved float32 I/Q) is supported.
func ReadFrame(fsys fsutil.FileSystem, path string) (*Frame, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, HEADER_SIZE)
	if _, err := io.ReadFull(f, buf); err != nil {
		opsf("short header in %s: %v", path, err)
		return nil, fmt.Errorf("%w: %s: reading header: %v", ErrFormat, path, err)
	}
	h, err := Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if h.SampleBitDepth != 32 {
		return nil, fmt.Errorf("%w: %s: unsupported sample bit depth %d", ErrFormat, path, h.SampleBitDepth)
	}

	size, err := PayloadSize(h)
	if err != nil {
		opsf("bad payload geometry in %s: %v", path, err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if st, err := f.Stat(); err == nil {
		if avail := st.Size() - HEADER_SIZE; size > avail {
			opsf("truncated payload in %s: expected %d bytes, file holds %d", path, size, avail)
			return nil, fmt.Errorf("%w: %s: payload expected %d bytes, file holds %d", ErrFormat, path, size, avail)
		}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(f, payload); err != nil {
		opsf("truncated payload in %s: expected %d bytes: %v", path, len(payload), err)
		return nil, fmt.Errorf("%w: %s: payload expected %d bytes: %v", ErrFormat, path, len(payload), err)
	}

	channels := int(h.ActiveAntChs)
	n := int(h.CPILength)
	samples := make([][]complex64, channels)
	for m := 0; m < channels; m++ {
		samples[m] = make([]complex64, n)
		for i := 0; i < n; i++ {
			off := (m*n + i) * 8
			re := math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(payload[off+4:]))
			samples[m][i] = complex(re, im)
		}
	}

	return &Frame{Header: h, Samples: samples}, nil
}

// EncodeFrame serialises a header followed by float32 I/Q samples. The
// header's channel count and CPI length are taken from samples.
func EncodeFrame(h *FrameHeader, samples [][]complex64) []byte {
	hdr := *h
	hdr.ActiveAntChs = uint32(len(samples))
	if len(samples) > 0 {
		hdr.CPILength = uint32(len(samples[0]))
	}
	hdr.SampleBitDepth = 32

	out := Encode(&hdr)
	word := make([]byte, 4)
	for _, ch := range samples {
		for _, s := range ch {
			binary.LittleEndian.PutUint32(word, math.Float32bits(real(s)))
			out = append(out, word...)
			binary.LittleEndian.PutUint32(word, math.Float32bits(imag(s)))
			out = append(out, word...)
		}
	}
	return out
}
