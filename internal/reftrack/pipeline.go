package reftrack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/reftrack/internal/bistatic"
	"github.com/banshee-data/reftrack/internal/config"
	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/measurement"
	"github.com/banshee-data/reftrack/internal/store"
	"github.com/banshee-data/reftrack/internal/timeutil"
	"github.com/banshee-data/reftrack/internal/track"
	"github.com/banshee-data/reftrack/internal/units"
	"github.com/banshee-data/reftrack/internal/version"
)

// ErrNoWavelength is returned when neither the configuration nor the block
// headers provide a centre frequency.
var ErrNoWavelength = errors.New("no centre frequency available")

// Options is the resolved configuration of one pipeline run.
type Options struct {
	MeasurementPath string
	IQDir           string
	TargetInfoDir   string
	TrackFilePrefix string
	TimestampUnit   string
	Degree          int

	// CenterFrequencyHz overrides the header rf_center_freq when non-zero.
	CenterFrequencyHz float64

	Sites   Sites
	Window  track.WindowOptions
	Assign  track.AssignOptions
	Workers int
	Plot    bool
}

// OptionsFromConfig resolves a campaign configuration into run options.
func OptionsFromConfig(cfg *config.CampaignConfig) (Options, error) {
	policy, err := track.ParseGapPolicy(cfg.GetGapPolicy())
	if err != nil {
		return Options{}, err
	}
	radar, ill := cfg.GetRadar(), cfg.GetIlluminator()
	freq, _ := cfg.GetCenterFrequencyHz()
	return Options{
		MeasurementPath:   cfg.GetMeasurementPath(),
		IQDir:             cfg.GetIQDir(),
		TargetInfoDir:     cfg.GetTargetInfoDir(),
		TrackFilePrefix:   cfg.GetTrackFilePrefix(),
		TimestampUnit:     cfg.GetTimestampUnit(),
		Degree:            cfg.GetInterpolationDegree(),
		CenterFrequencyHz: freq,
		Sites: Sites{
			Radar:       bistatic.Site{Lat: radar.Lat, Lon: radar.Lon, ElevationM: radar.ElevationM, BearingDeg: radar.BearingDeg},
			Illuminator: bistatic.Site{Lat: ill.Lat, Lon: ill.Lon, ElevationM: ill.ElevationM},
		},
		Window:  track.WindowOptions{StrictPadding: cfg.GetStrictPadding()},
		Assign:  track.AssignOptions{Policy: policy, MaxGap: cfg.GetMaxGap()},
		Workers: cfg.GetWorkers(),
		Plot:    cfg.GetPlot(),
	}, nil
}

// Pipeline turns a measurement directory and its feeds into reference tracks.
type Pipeline struct {
	FS       fsutil.FileSystem
	Geometry bistatic.Geometry
	Clock    timeutil.Clock
	Store    *store.Store // Optional
	Options  Options
}

// NewPipeline returns a Pipeline on the OS filesystem with WGS84 geometry.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		FS:       fsutil.OSFileSystem{},
		Geometry: bistatic.WGS84{},
		Clock:    timeutil.RealClock{},
		Options:  opts,
	}
}

// TargetResult is the outcome of one feed.
type TargetResult struct {
	TargetID   int
	FeedPath   string
	Callsign   string
	Status     string // store.StatusWritten, StatusSkipped or StatusFailed
	Err        error
	OutputPath string
	Track      *ReferenceTrack
	Gaps       []float64
	Stale      int
	Clamped    bool
}

// Report summarises a pipeline run.
type Report struct {
	RunID      string
	Timeline   measurement.Timeline
	Missing    []int
	Wavelength float64
	Targets    []TargetResult
	Duration   time.Duration
}

// Written returns the number of targets whose table was written.
func (r *Report) Written() int {
	n := 0
	for _, t := range r.Targets {
		if t.Status == store.StatusWritten {
			n++
		}
	}
	return n
}

// Run executes the pipeline. The timeline is computed once; targets are
// processed by up to Options.Workers goroutines and written sequentially
// after all of them finish. Only ErrNoBlocks, a missing centre frequency,
// store failures and cancellation abort the run; per-target problems are
// recorded in the report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	opts := p.Options
	started := p.Clock.Now()

	tl, err := measurement.ScanDir(p.FS, opts.IQDir, opts.TimestampUnit)
	if err != nil {
		return nil, err
	}
	blockTimes, missing := tl.BlockTimes()
	if len(missing) > 0 {
		log.Printf("[reftrack] warning: %d block indices missing, timestamps interpolated: %v", len(missing), missing)
	}

	wavelength, err := p.wavelength(tl)
	if err != nil {
		return nil, err
	}
	log.Printf("[reftrack] wavelength %.4f m", wavelength)

	feeds, err := track.ListFeeds(p.FS, opts.TargetInfoDir)
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		log.Printf("[reftrack] warning: no feed files in %s", opts.TargetInfoDir)
	}

	report := &Report{Timeline: tl, Missing: missing, Wavelength: wavelength}
	if p.Store != nil {
		run := &store.Run{
			MeasurementPath: opts.MeasurementPath,
			StartIndex:      tl.StartIndex,
			StopIndex:       tl.StopIndex,
			StartTime:       tl.StartTime,
			StopTime:        tl.StopTime,
			MissingBlocks:   len(missing),
			WavelengthM:     wavelength,
			Degree:          opts.Degree,
			Version:         version.Version,
			GitSHA:          version.GitSHA,
			ParamsJSON:      paramsJSON(opts),
			StartedAt:       started.UnixNano(),
		}
		if err := p.Store.StartRun(run); err != nil {
			return nil, err
		}
		report.RunID = run.RunID
	}

	results := make([]TargetResult, len(feeds))
	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for id, path := range feeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[id] = p.processTarget(id, path, tl, blockTimes, wavelength)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		if err := p.persist(report.RunID, &results[i]); err != nil {
			return nil, err
		}
	}
	report.Targets = results
	report.Duration = p.Clock.Since(started)

	if p.Store != nil {
		if err := p.Store.FinishRun(report.RunID, p.Clock.Now(), report.Duration); err != nil {
			return nil, err
		}
	}
	log.Printf("[reftrack] target reference track generation finished: %d of %d targets written in %v",
		report.Written(), len(results), report.Duration)
	return report, nil
}

func (p *Pipeline) wavelength(tl measurement.Timeline) (float64, error) {
	freq := p.Options.CenterFrequencyHz
	if freq <= 0 {
		freq = float64(tl.CenterHz)
	}
	if freq <= 0 {
		return 0, ErrNoWavelength
	}
	return units.Wavelength(freq), nil
}

// processTarget runs window, resample, assign and build for one feed. It
// owns every value it creates and touches no shared state.
func (p *Pipeline) processTarget(id int, path string, tl measurement.Timeline, blockTimes []float64, wavelength float64) TargetResult {
	opts := p.Options
	res := TargetResult{TargetID: id, FeedPath: path}
	fail := func(err error) TargetResult {
		res.Err = err
		if errors.Is(err, track.ErrEmptyWindow) {
			res.Status = store.StatusSkipped
			log.Printf("[reftrack] warning: reference data can not be extracted for target ID: %d (%s): %v", id, path, err)
		} else {
			res.Status = store.StatusFailed
			log.Printf("[reftrack] target ID %d (%s) failed: %v", id, path, err)
		}
		return res
	}

	feed, err := track.ReadFeed(p.FS, path)
	if err != nil {
		return fail(err)
	}
	res.Callsign = feed.Callsign

	w, err := track.ExtractWindow(feed.Points, tl.StartSeconds, tl.StopSeconds, opts.Window)
	if err != nil {
		return fail(err)
	}
	res.Clamped = w.Clamped()
	if res.Clamped {
		log.Printf("[reftrack] warning: target ID %d feed does not cover the measurement (before=%t after=%t)",
			id, w.PaddedBefore, w.PaddedAfter)
	}

	traj, err := track.Resample(w.Points, opts.Degree)
	if err != nil {
		return fail(err)
	}
	a, err := track.Assign(traj, blockTimes, opts.Assign)
	if err != nil {
		return fail(err)
	}
	res.Gaps, res.Stale = a.Gaps, a.Stale

	log.Printf("[reftrack] calculating bistatic range and Doppler for target ID: %d", id)
	tr, err := Build(id, tl.StartIndex, blockTimes, a.Samples, opts.Sites, wavelength, p.Geometry)
	if err != nil {
		return fail(err)
	}
	res.Track = tr
	res.Status = store.StatusWritten
	return res
}

// persist writes the artifacts of one result. Called sequentially.
func (p *Pipeline) persist(runID string, res *TargetResult) error {
	opts := p.Options
	if res.Status == store.StatusWritten {
		if err := p.FS.MkdirAll(opts.TargetInfoDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", opts.TargetInfoDir, err)
		}
		res.OutputPath = filepath.Join(opts.TargetInfoDir, fmt.Sprintf("%s%d.trt", opts.TrackFilePrefix, res.TargetID))
		log.Printf("[reftrack] saving target reference track array for target ID: %d", res.TargetID)
		if err := SaveTable(p.FS, res.OutputPath, res.Track); err != nil {
			res.Status, res.Err, res.OutputPath = store.StatusFailed, err, ""
			log.Printf("[reftrack] target ID %d: %v", res.TargetID, err)
		} else if opts.Plot {
			png := strings.TrimSuffix(res.OutputPath, ".trt") + ".png"
			if err := SavePlot(p.FS, png, res.Track); err != nil {
				log.Printf("[reftrack] warning: plot for target ID %d: %v", res.TargetID, err)
			}
		}
	}

	if p.Store == nil {
		return nil
	}
	t := &store.Target{
		RunID:      runID,
		TargetID:   res.TargetID,
		FeedPath:   res.FeedPath,
		Callsign:   res.Callsign,
		Status:     res.Status,
		OutputPath: res.OutputPath,
		StaleRows:  res.Stale,
	}
	if res.Err != nil {
		t.Reason = res.Err.Error()
	}
	var rows []store.Row
	if res.Status == store.StatusWritten {
		rows = make([]store.Row, len(res.Track.Rows))
		for i, r := range res.Track.Rows {
			rows[i] = store.Row{
				BlockIndex:      r.BlockIndex,
				Timestamp:       r.Timestamp,
				Latitude:        r.Latitude,
				Longitude:       r.Longitude,
				Altitude:        r.Altitude,
				Speed:           r.Speed,
				Direction:       r.Direction,
				BistaticRange:   r.BistaticRange,
				BistaticDoppler: r.BistaticDoppler,
				BistaticBearing: r.BistaticBearing,
				AssignmentGap:   res.Gaps[i],
			}
		}
	}
	return p.Store.RecordTarget(t, rows)
}

func paramsJSON(opts Options) json.RawMessage {
	b, err := json.Marshal(map[string]interface{}{
		"degree":         opts.Degree,
		"timestamp_unit": opts.TimestampUnit,
		"gap_policy":     opts.Assign.Policy.String(),
		"max_gap":        opts.Assign.MaxGap.String(),
		"strict_padding": opts.Window.StrictPadding,
		"workers":        opts.Workers,
		"radar":          opts.Sites.Radar,
		"illuminator":    opts.Sites.Illuminator,
	})
	if err != nil {
		return nil
	}
	return b
}
