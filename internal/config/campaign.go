package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the example campaign configuration.
const DefaultConfigPath = "config/campaign.example.json"

// ErrInvalid is returned (wrapped) when a configuration value fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Gap policies accepted by gap_policy.
const (
	GapPolicyIgnore = "ignore"
	GapPolicyFlag   = "flag"
	GapPolicyReject = "reject"
)

// SiteConfig locates a radar receiver or an illuminator of opportunity.
type SiteConfig struct {
	Lat        *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
	ElevationM *float64 `json:"elevation_m,omitempty" yaml:"elevation_m,omitempty"`
	// BearingDeg is the antenna boresight, only meaningful for the radar.
	BearingDeg *float64 `json:"bearing_deg,omitempty" yaml:"bearing_deg,omitempty"`
}

// CampaignConfig describes one measurement campaign run.
// Fields omitted from the file fall back to the Get* defaults.
type CampaignConfig struct {
	MeasurementPath *string `json:"measurement_path,omitempty" yaml:"measurement_path,omitempty"`
	IQDir           *string `json:"iq_dir,omitempty" yaml:"iq_dir,omitempty"`
	TargetInfoDir   *string `json:"target_info_dir,omitempty" yaml:"target_info_dir,omitempty"`
	TrackFilePrefix *string `json:"track_file_prefix,omitempty" yaml:"track_file_prefix,omitempty"`

	// CenterFrequencyHz overrides the rf_center_freq read from the first block header.
	CenterFrequencyHz   *float64 `json:"center_frequency_hz,omitempty" yaml:"center_frequency_hz,omitempty"`
	TimestampUnit       *string  `json:"timestamp_unit,omitempty" yaml:"timestamp_unit,omitempty"`
	InterpolationDegree *int     `json:"interpolation_degree,omitempty" yaml:"interpolation_degree,omitempty"`

	Radar       *SiteConfig `json:"radar,omitempty" yaml:"radar,omitempty"`
	Illuminator *SiteConfig `json:"illuminator,omitempty" yaml:"illuminator,omitempty"`

	MaxGap        *string `json:"max_gap,omitempty" yaml:"max_gap,omitempty"` // duration string like "2s"
	GapPolicy     *string `json:"gap_policy,omitempty" yaml:"gap_policy,omitempty"`
	StrictPadding *bool   `json:"strict_padding,omitempty" yaml:"strict_padding,omitempty"`
	Workers       *int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	DBPath        *string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Plot          *bool   `json:"plot,omitempty" yaml:"plot,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyCampaignConfig returns a CampaignConfig with all fields set to nil.
func EmptyCampaignConfig() *CampaignConfig {
	return &CampaignConfig{}
}

// LoadCampaignConfig loads a CampaignConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
func LoadCampaignConfig(path string) (*CampaignConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCampaignConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *CampaignConfig) Validate() error {
	if c.InterpolationDegree != nil {
		if *c.InterpolationDegree < 1 || *c.InterpolationDegree > 5 {
			return fmt.Errorf("%w: interpolation_degree must be between 1 and 5, got %d", ErrInvalid, *c.InterpolationDegree)
		}
	}

	if c.TimestampUnit != nil {
		switch *c.TimestampUnit {
		case "s", "ms", "us", "ns":
		default:
			return fmt.Errorf("%w: timestamp_unit must be one of s, ms, us, ns, got %q", ErrInvalid, *c.TimestampUnit)
		}
	}

	if c.CenterFrequencyHz != nil && *c.CenterFrequencyHz <= 0 {
		return fmt.Errorf("%w: center_frequency_hz must be positive, got %f", ErrInvalid, *c.CenterFrequencyHz)
	}

	if c.MaxGap != nil && *c.MaxGap != "" {
		d, err := time.ParseDuration(*c.MaxGap)
		if err != nil {
			return fmt.Errorf("%w: invalid max_gap '%s': %v", ErrInvalid, *c.MaxGap, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: max_gap must be positive, got %s", ErrInvalid, *c.MaxGap)
		}
	}

	if c.GapPolicy != nil {
		switch *c.GapPolicy {
		case GapPolicyIgnore, GapPolicyFlag, GapPolicyReject:
		default:
			return fmt.Errorf("%w: gap_policy must be ignore, flag or reject, got %q", ErrInvalid, *c.GapPolicy)
		}
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, *c.Workers)
	}

	if err := c.Radar.validate("radar"); err != nil {
		return err
	}
	return c.Illuminator.validate("illuminator")
}

func (s *SiteConfig) validate(name string) error {
	if s == nil {
		return nil
	}
	if s.Lat != nil && (*s.Lat < -90 || *s.Lat > 90) {
		return fmt.Errorf("%w: %s.lat must be between -90 and 90, got %f", ErrInvalid, name, *s.Lat)
	}
	if s.Lon != nil && (*s.Lon < -180 || *s.Lon > 180) {
		return fmt.Errorf("%w: %s.lon must be between -180 and 180, got %f", ErrInvalid, name, *s.Lon)
	}
	return nil
}

// GetMeasurementPath returns the measurement_path value or ".".
func (c *CampaignConfig) GetMeasurementPath() string {
	if c.MeasurementPath == nil || *c.MeasurementPath == "" {
		return "."
	}
	return *c.MeasurementPath
}

// GetIQDir returns the IQ block directory, joined onto the measurement path.
func (c *CampaignConfig) GetIQDir() string {
	dir := "iq"
	if c.IQDir != nil && *c.IQDir != "" {
		dir = *c.IQDir
	}
	return filepath.Join(c.GetMeasurementPath(), dir)
}

// GetTargetInfoDir returns the target info directory, joined onto the measurement path.
func (c *CampaignConfig) GetTargetInfoDir() string {
	dir := "target_info"
	if c.TargetInfoDir != nil && *c.TargetInfoDir != "" {
		dir = *c.TargetInfoDir
	}
	return filepath.Join(c.GetMeasurementPath(), dir)
}

// GetTrackFilePrefix returns the reference track file prefix or the default.
func (c *CampaignConfig) GetTrackFilePrefix() string {
	if c.TrackFilePrefix == nil {
		return "target_ref_track_"
	}
	return *c.TrackFilePrefix
}

// GetCenterFrequencyHz returns the configured centre frequency and whether it was set.
func (c *CampaignConfig) GetCenterFrequencyHz() (float64, bool) {
	if c.CenterFrequencyHz == nil {
		return 0, false
	}
	return *c.CenterFrequencyHz, true
}

// GetTimestampUnit returns the header timestamp unit or the default.
func (c *CampaignConfig) GetTimestampUnit() string {
	if c.TimestampUnit == nil {
		return "s"
	}
	return *c.TimestampUnit
}

// GetInterpolationDegree returns the spline degree or the default.
func (c *CampaignConfig) GetInterpolationDegree() int {
	if c.InterpolationDegree == nil {
		return 1
	}
	return *c.InterpolationDegree
}

// GetMaxGap returns the max_gap duration, 0 meaning no limit.
func (c *CampaignConfig) GetMaxGap() time.Duration {
	if c.MaxGap == nil || *c.MaxGap == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.MaxGap)
	if err != nil {
		return 0
	}
	return d
}

// GetGapPolicy returns the gap policy or the default.
func (c *CampaignConfig) GetGapPolicy() string {
	if c.GapPolicy == nil {
		return GapPolicyIgnore
	}
	return *c.GapPolicy
}

// GetStrictPadding returns the strict_padding value or the default.
func (c *CampaignConfig) GetStrictPadding() bool {
	if c.StrictPadding == nil {
		return false
	}
	return *c.StrictPadding
}

// GetWorkers returns the worker count or the default.
func (c *CampaignConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetDBPath returns the sqlite store path, "" meaning no store.
func (c *CampaignConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetPlot returns the plot value or the default.
func (c *CampaignConfig) GetPlot() bool {
	if c.Plot == nil {
		return false
	}
	return *c.Plot
}

// Site is a resolved site location with defaults applied.
type Site struct {
	Lat, Lon, ElevationM, BearingDeg float64
}

// Defaults for the receiver and illuminator of the 2019 campaign.
var (
	DefaultRadarSite       = Site{Lat: 46.678105, Lon: 18.423188, ElevationM: 106, BearingDeg: 81}
	DefaultIlluminatorSite = Site{Lat: 46.5911111, Lon: 18.5791667, ElevationM: 298}
)

func (s *SiteConfig) resolve(def Site) Site {
	if s == nil {
		return def
	}
	out := def
	if s.Lat != nil {
		out.Lat = *s.Lat
	}
	if s.Lon != nil {
		out.Lon = *s.Lon
	}
	if s.ElevationM != nil {
		out.ElevationM = *s.ElevationM
	}
	if s.BearingDeg != nil {
		out.BearingDeg = *s.BearingDeg
	}
	return out
}

// GetRadar returns the radar site with defaults applied.
func (c *CampaignConfig) GetRadar() Site {
	return c.Radar.resolve(DefaultRadarSite)
}

// GetIlluminator returns the illuminator site with defaults applied.
func (c *CampaignConfig) GetIlluminator() Site {
	return c.Illuminator.resolve(DefaultIlluminatorSite)
}

// DefaultCampaignConfig returns a CampaignConfig with every default made explicit.
func DefaultCampaignConfig() *CampaignConfig {
	radar, ill := DefaultRadarSite, DefaultIlluminatorSite
	return &CampaignConfig{
		MeasurementPath:     ptrString("."),
		IQDir:               ptrString("iq"),
		TargetInfoDir:       ptrString("target_info"),
		TrackFilePrefix:     ptrString("target_ref_track_"),
		TimestampUnit:       ptrString("s"),
		InterpolationDegree: ptrInt(1),
		Radar: &SiteConfig{
			Lat:        ptrFloat64(radar.Lat),
			Lon:        ptrFloat64(radar.Lon),
			ElevationM: ptrFloat64(radar.ElevationM),
			BearingDeg: ptrFloat64(radar.BearingDeg),
		},
		Illuminator: &SiteConfig{
			Lat:        ptrFloat64(ill.Lat),
			Lon:        ptrFloat64(ill.Lon),
			ElevationM: ptrFloat64(ill.ElevationM),
		},
		MaxGap:        ptrString(""),
		GapPolicy:     ptrString(GapPolicyIgnore),
		StrictPadding: ptrBool(false),
		Workers:       ptrInt(1),
		DBPath:        ptrString(""),
		Plot:          ptrBool(false),
	}
}
