package iqframe

import "fmt"

/*
IQ FRAME HEADER LAYOUT (1024 bytes, little-endian)

The recording firmware writes the header as a naturally aligned C struct, so
every uint64 starts on an 8-byte boundary. Three 4-byte alignment gaps appear
in front of rf_center_freq, time_stamp and ext_integration_cntr; together with
193 reserved words they bring the record to exactly 1024 bytes.

├── 0    header_version, frame_type            (2 × u32)
├── 8    hardware_id                           (16 bytes text)
├── 24   unit_id, active_ant_chs, ioo_type     (3 × u32) + 4 bytes gap
├── 40   rf_center_freq, adc_sampling_freq,
│        sampling_freq                         (3 × u64)
├── 64   cpi_length                            (u32) + 4 bytes gap
├── 72   time_stamp                            (u64)
├── 80   cpi_index                             (u32) + 4 bytes gap
├── 88   ext_integration_cntr                  (u64)
├── 96   data_type, sample_bit_depth,
│        adc_overdrive_flags                   (3 × u32)
├── 108  if_gains                              (32 × u32)
├── 236  delay_sync_flag, iq_sync_flag,
│        sync_state, noise_source_state        (4 × u32)
└── 252  reserved                              (193 × u32)
*/

// field is one entry of the header layout. Exactly one accessor is set for
// data fields; padding entries have none and are zero on encode.
type field struct {
	Name   string
	Offset int
	Width  int

	u32   func(*FrameHeader) *uint32
	u64   func(*FrameHeader) *uint64
	text  func(*FrameHeader) *string
	words func(*FrameHeader) []uint32
}

// FieldSpec describes the position of a header field in the encoded record.
type FieldSpec struct {
	Name   string
	Offset int
	Width  int
}

var headerLayout = []field{
	{Name: "header_version", Offset: 0, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.HeaderVersion }},
	{Name: "frame_type", Offset: 4, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.FrameType }},
	{Name: "hardware_id", Offset: 8, Width: HARDWARE_ID_SIZE, text: func(h *FrameHeader) *string { return &h.HardwareID }},
	{Name: "unit_id", Offset: 24, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.UnitID }},
	{Name: "active_ant_chs", Offset: 28, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.ActiveAntChs }},
	{Name: "ioo_type", Offset: 32, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.IOOType }},
	{Name: "pad0", Offset: 36, Width: 4},
	{Name: "rf_center_freq", Offset: 40, Width: 8, u64: func(h *FrameHeader) *uint64 { return &h.RFCenterFreq }},
	{Name: "adc_sampling_freq", Offset: 48, Width: 8, u64: func(h *FrameHeader) *uint64 { return &h.ADCSamplingFreq }},
	{Name: "sampling_freq", Offset: 56, Width: 8, u64: func(h *FrameHeader) *uint64 { return &h.SamplingFreq }},
	{Name: "cpi_length", Offset: 64, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.CPILength }},
	{Name: "pad1", Offset: 68, Width: 4},
	{Name: "time_stamp", Offset: 72, Width: 8, u64: func(h *FrameHeader) *uint64 { return &h.TimeStamp }},
	{Name: "cpi_index", Offset: 80, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.CPIIndex }},
	{Name: "pad2", Offset: 84, Width: 4},
	{Name: "ext_integration_cntr", Offset: 88, Width: 8, u64: func(h *FrameHeader) *uint64 { return &h.ExtIntegrationCntr }},
	{Name: "data_type", Offset: 96, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.DataType }},
	{Name: "sample_bit_depth", Offset: 100, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.SampleBitDepth }},
	{Name: "adc_overdrive_flags", Offset: 104, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.ADCOverdriveFlags }},
	{Name: "if_gains", Offset: 108, Width: 4 * MAX_CHANNELS, words: func(h *FrameHeader) []uint32 { return h.IFGains[:] }},
	{Name: "delay_sync_flag", Offset: 236, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.DelaySyncFlag }},
	{Name: "iq_sync_flag", Offset: 240, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.IQSyncFlag }},
	{Name: "sync_state", Offset: 244, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.SyncState }},
	{Name: "noise_source_state", Offset: 248, Width: 4, u32: func(h *FrameHeader) *uint32 { return &h.NoiseSourceState }},
	{Name: "reserved", Offset: 252, Width: 4 * RESERVED_WORDS},
}

func init() {
	if err := validateLayout(headerLayout); err != nil {
		panic(err)
	}
}

// validateLayout checks that the fields tile the header exactly once, that
// accessor widths match field widths and that uint64 fields are 8-byte aligned.
func validateLayout(layout []field) error {
	next := 0
	for _, f := range layout {
		if f.Offset != next {
			return fmt.Errorf("iqframe layout: field %s at offset %d, expected %d", f.Name, f.Offset, next)
		}
		switch {
		case f.u32 != nil && f.Width != 4:
			return fmt.Errorf("iqframe layout: u32 field %s has width %d", f.Name, f.Width)
		case f.u64 != nil && (f.Width != 8 || f.Offset%8 != 0):
			return fmt.Errorf("iqframe layout: u64 field %s has width %d at offset %d", f.Name, f.Width, f.Offset)
		case f.words != nil && f.Width%4 != 0:
			return fmt.Errorf("iqframe layout: word array %s has width %d", f.Name, f.Width)
		}
		next += f.Width
	}
	if next != HEADER_SIZE {
		return fmt.Errorf("iqframe layout: fields cover %d bytes, expected %d", next, HEADER_SIZE)
	}
	return nil
}

// Layout returns the ordered field table, including alignment gaps and the
// reserved tail.
func Layout() []FieldSpec {
	specs := make([]FieldSpec, len(headerLayout))
	for i, f := range headerLayout {
		specs[i] = FieldSpec{Name: f.Name, Offset: f.Offset, Width: f.Width}
	}
	return specs
}
