// Command iqframe-analyse checks the headers of a recorded measurement for
// lost frames, lost CPIs, synchronisation loss and overdrive, and renders an
// HTML report of the per-frame series.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/reftrack/internal/frameanalysis"
	"github.com/banshee-data/reftrack/internal/fsutil"
	"github.com/banshee-data/reftrack/internal/iqframe"
	"github.com/banshee-data/reftrack/internal/measurement"
	"github.com/banshee-data/reftrack/internal/timeutil"
	"github.com/banshee-data/reftrack/internal/version"
)

var (
	iqDir          = flag.String("iq", "iq", "Directory holding the .iqf blocks")
	outFile        = flag.String("out", "iqframe-analysis.html", "HTML report path (empty to skip)")
	ignoreNonData  = flag.Bool("ignore-non-data", true, "Skip dummy, ramp, calibration and trigger-wait frames")
	ignoreUnsynced = flag.Bool("ignore-unsynced", false, "Skip frames without delay and IQ sync")
	dump           = flag.Int("dump", -1, "Print the full header of this block index and exit")
	unit           = flag.String("unit", "s", "Timestamp unit: s, ms, us or ns")
	checkPayload   = flag.Bool("payload", false, "Also read every payload and count malformed, truncated or non-finite blocks")
	traceDecode    = flag.Bool("vv", false, "Log every decoded header")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("iqframe-analyse"))
		return
	}
	if !timeutil.IsValidUnit(*unit) {
		log.Fatalf("Invalid -unit %q, want one of %v", *unit, timeutil.ValidUnits)
	}
	var trace io.Writer
	if *traceDecode {
		trace = os.Stderr
	}
	iqframe.SetLogWriters(os.Stderr, os.Stderr, trace)

	fsys := fsutil.OSFileSystem{}
	paths, err := measurement.ListBlocks(fsys, *iqDir)
	if err != nil {
		log.Fatalf("Failed to list blocks: %v", err)
	}

	if *dump >= 0 {
		if err := dumpBlock(fsys, paths, *dump); err != nil {
			log.Fatalf("Dump failed: %v", err)
		}
		return
	}

	frames, ignored, err := frameanalysis.Load(fsys, paths, frameanalysis.Options{
		IgnoreNonData:  *ignoreNonData,
		IgnoreUnsynced: *ignoreUnsynced,
		TimestampUnit:  *unit,
	})
	if err != nil {
		log.Fatalf("Failed to load frames: %v", err)
	}
	log.Printf("Ignored frames: %d", ignored)

	a, err := frameanalysis.Analyze(frames, *unit)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	a.LogSummary()

	if *checkPayload {
		pr, err := frameanalysis.CheckPayloads(fsys, frames)
		if err != nil {
			log.Fatalf("Payload check failed: %v", err)
		}
		for _, l := range pr.Summary() {
			log.Printf("[frameanalysis] %s", l)
		}
		if len(pr.Bad) > 0 {
			log.Printf("[frameanalysis] warning: bad payloads in blocks %v", pr.Bad)
		}
	}

	if *outFile == "" {
		return
	}
	f, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("Failed to create report: %v", err)
	}
	w := bufio.NewWriter(f)
	if err := frameanalysis.Render(w, a); err != nil {
		f.Close()
		log.Fatalf("Failed to render report: %v", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		log.Fatalf("Failed to write report: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to close report: %v", err)
	}
	log.Printf("Report written to %s", *outFile)
}

func dumpBlock(fsys fsutil.FileSystem, paths []string, index int) error {
	for _, p := range paths {
		idx, err := measurement.ParseBlockIndex(p)
		if err != nil || idx != index {
			continue
		}
		h, err := iqframe.ReadHeader(fsys, p)
		if err != nil {
			return err
		}
		return iqframe.Dump(os.Stdout, h)
	}
	return fmt.Errorf("block %d not found in %s", index, *iqDir)
}
