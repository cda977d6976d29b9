// Command genmock writes a deterministic mock monitor tree (SM4 summary log
// plus short silent WAV recordings with replayable detection sidecars) for
// demos and end-to-end tests.
//
// Usage:
//
//	go run ./cmd/genmock -raw-dir data/raw -monitor wrangcombe_audio1 -days 3
//
// Replay the sidecars through the pipeline with:
//
//	CLASSIFIER_COMMAND=cat CLASSIFIER_ARGS={input}.csv birdetl daily
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/bird-detect-etl/internal/mockmonitor"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	opts := mockmonitor.DefaultOptions()

	rawDir := flag.String("raw-dir", "data/raw", "raw data root to write the monitor tree under")
	start := flag.String("start", opts.Start.Format("2006-01-02T15:04"), "first recording time (YYYY-MM-DDTHH:MM, UTC)")
	flag.StringVar(&opts.Monitor, "monitor", opts.Monitor, "monitor name")
	flag.StringVar(&opts.Prefix, "prefix", opts.Prefix, "recorder serial used as filename prefix")
	flag.IntVar(&opts.Days, "days", opts.Days, "days of recordings")
	flag.IntVar(&opts.RecordingsPerDay, "per-day", opts.RecordingsPerDay, "recordings per day")
	flag.IntVar(&opts.MaxDetections, "max-detections", opts.MaxDetections, "maximum detections per recording")
	flag.Float64Var(&opts.Lat, "lat", opts.Lat, "site latitude (unsigned, northern hemisphere)")
	flag.Float64Var(&opts.Lon, "lon", opts.Lon, "site longitude (unsigned)")
	flag.StringVar(&opts.EW, "ew", opts.EW, "longitude hemisphere marker, E or W")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	flag.Parse()

	ts, err := time.Parse("2006-01-02T15:04", *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	opts.Start = ts

	res, err := mockmonitor.Write(*rawDir, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s/%s/%s: %d recordings, %d detections\n",
		*rawDir, opts.Monitor, res.Batch, len(res.Recordings), res.Detections)
	return nil
}
