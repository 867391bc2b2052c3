// Package units holds the unit conversions applied between the tracking
// feed (feet, knots) and the bistatic geometry (meters, meters per second).
package units

// Conversion constants
const (
	FEET_TO_M      = 0.3048
	KNOTS_TO_MPS   = 0.51444444444
	SPEED_OF_LIGHT = 299792458.0 // m/s
)

// FeetToMeters converts an altitude reported in feet to meters.
func FeetToMeters(ft float64) float64 {
	return ft * FEET_TO_M
}

// KnotsToMPS converts a ground speed in knots to meters per second.
func KnotsToMPS(kt float64) float64 {
	return kt * KNOTS_TO_MPS
}

// Wavelength returns the carrier wavelength in meters for a center
// frequency in Hz. A non-positive frequency yields 0.
func Wavelength(freqHz float64) float64 {
	if freqHz <= 0 {
		return 0
	}
	return SPEED_OF_LIGHT / freqHz
}
