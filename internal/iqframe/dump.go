package iqframe

import (
	"fmt"
	"io"
)

// Dump writes the header in human readable form, one field per line.
// Only the IF gains of the active channels are listed.
func Dump(w io.Writer, h *FrameHeader) error {
	lines := []string{
		fmt.Sprintf("Header version: %d", h.HeaderVersion),
		fmt.Sprintf("Frame type: %d", h.FrameType),
		fmt.Sprintf("Hardware ID: %-16s", h.HardwareID),
		fmt.Sprintf("Unit ID: %d", h.UnitID),
		fmt.Sprintf("Active antenna channels: %d", h.ActiveAntChs),
		fmt.Sprintf("Illuminator type: %d", h.IOOType),
		fmt.Sprintf("RF center frequency: %.2f MHz", float64(h.RFCenterFreq)/1e6),
		fmt.Sprintf("ADC sampling frequency: %.2f MHz", float64(h.ADCSamplingFreq)/1e6),
		fmt.Sprintf("IQ sampling frequency: %.2f MHz", float64(h.SamplingFreq)/1e6),
		fmt.Sprintf("CPI length: %d", h.CPILength),
		fmt.Sprintf("Time stamp: %d", h.TimeStamp),
		fmt.Sprintf("CPI index: %d", h.CPIIndex),
		fmt.Sprintf("Extended integration counter: %d", h.ExtIntegrationCntr),
		fmt.Sprintf("Data type: %d", h.DataType),
		fmt.Sprintf("Sample bit depth: %d", h.SampleBitDepth),
		fmt.Sprintf("ADC overdrive flags: %d", h.ADCOverdriveFlags),
	}
	for m := 0; m < int(h.ActiveAntChs) && m < MAX_CHANNELS; m++ {
		lines = append(lines, fmt.Sprintf("Ch: %d IF gain: %.1f dB", m, float64(h.IFGains[m])/10))
	}
	lines = append(lines,
		fmt.Sprintf("Delay sync flag: %d", h.DelaySyncFlag),
		fmt.Sprintf("IQ sync flag: %d", h.IQSyncFlag),
		fmt.Sprintf("Sync state: %d", h.SyncState),
		fmt.Sprintf("Noise source state: %d", h.NoiseSourceState),
	)

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	diagf("dumped header of cpi_index=%d", h.CPIIndex)
	return nil
}
