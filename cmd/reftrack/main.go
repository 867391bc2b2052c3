// Command reftrack builds bistatic reference tracks for a recorded passive
// radar measurement from the FlightRadar24 feeds stored next to it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/reftrack/internal/config"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/reftrack"
	"github.com/banshee-data/reftrack/internal/store"
	"github.com/banshee-data/reftrack/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to campaign configuration (.json or .yaml)")
	measPath    = flag.String("meas", "", "Measurement directory (overrides config)")
	degree      = flag.Int("degree", 0, "Interpolation degree 1..5 (overrides config)")
	workers     = flag.Int("workers", 0, "Parallel target workers (overrides config)")
	dbPath      = flag.String("db", "", "SQLite database for run provenance (overrides config)")
	plot        = flag.Bool("plot", false, "Render a PNG plot next to each table")
	serve       = flag.String("serve", "", "After the run, serve the database debug pages on this address until interrupted (requires a database)")
	verbose     = flag.Bool("v", false, "Log malformed and truncated IQ blocks")
	traceDecode = flag.Bool("vv", false, "Like -v, and also log every decoded header")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("reftrack"))
		return
	}
	iqframe.SetLogWriters(iqframeLogWriters(os.Stderr, *verbose, *traceDecode))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	opts, err := reftrack.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	p := reftrack.NewPipeline(opts)
	if path := cfg.GetDBPath(); path != "" {
		s, err := store.Open(path)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer s.Close()
		p.Store = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("Run cancelled")
			return
		}
		log.Fatalf("Reference track generation failed: %v", err)
	}

	for _, t := range report.Targets {
		switch t.Status {
		case store.StatusWritten:
			log.Printf("target %d (%s): %d rows -> %s", t.TargetID, t.Callsign, len(t.Track.Rows), t.OutputPath)
		default:
			log.Printf("target %d (%s): %s: %v", t.TargetID, t.FeedPath, t.Status, t.Err)
		}
	}
	log.Printf("Wrote %d of %d reference tracks in %s", report.Written(), len(report.Targets), report.Duration)

	if *serve != "" {
		if p.Store == nil {
			log.Fatalf("-serve requires a database (-db or db_path)")
		}
		if err := serveAdmin(ctx, p.Store, *serve); err != nil {
			log.Fatalf("Debug server failed: %v", err)
		}
	}
}

// serveAdmin serves the store debug pages until ctx is cancelled.
func serveAdmin(ctx context.Context, s *store.Store, addr string) error {
	mux := http.NewServeMux()
	if err := s.AttachAdminRoutes(mux); err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Serving debug pages on %s/debug/", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// iqframeLogWriters picks the iqframe ops, diag and trace streams for the
// -v and -vv flags. -vv implies -v.
func iqframeLogWriters(w io.Writer, verbose, trace bool) (ops, diag, tr io.Writer) {
	if verbose || trace {
		ops = w
	}
	if trace {
		tr = w
	}
	return ops, nil, tr
}

// loadConfig reads -config when given, otherwise the example configuration
// when present, otherwise the built-in defaults.
func loadConfig() (*config.CampaignConfig, error) {
	if *configFile != "" {
		return config.LoadCampaignConfig(*configFile)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadCampaignConfig(config.DefaultConfigPath)
	}
	log.Printf("No configuration file, using defaults")
	return config.DefaultCampaignConfig(), nil
}

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(cfg *config.CampaignConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "meas":
			cfg.MeasurementPath = measPath
		case "degree":
			cfg.InterpolationDegree = degree
		case "workers":
			cfg.Workers = workers
		case "db":
			cfg.DBPath = dbPath
		case "plot":
			cfg.Plot = plot
		}
	})
}
