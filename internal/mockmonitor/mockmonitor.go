// Package mockmonitor writes deterministic raw monitor trees: an SM4
// summary log plus short silent WAV recordings with valid names, each with
// a BirdNET-style CSV sidecar ("<recording>.csv") so a replaying classifier
// such as `cat {input}.csv` yields stable detections.
package mockmonitor

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// Species is a label the mock classifier may emit.
type Species struct {
	Scientific string
	Common     string
}

// DefaultSpecies is a handful of common Exmoor woodland birds.
var DefaultSpecies = []Species{
	{"Erithacus rubecula", "European Robin"},
	{"Turdus merula", "Eurasian Blackbird"},
	{"Troglodytes troglodytes", "Eurasian Wren"},
	{"Fringilla coelebs", "Common Chaffinch"},
	{"Parus major", "Great Tit"},
	{"Cyanistes caeruleus", "Eurasian Blue Tit"},
}

// Options shape the generated tree.
type Options struct {
	Monitor          string
	Prefix           string // recorder serial, e.g. S4A12345
	Start            time.Time
	Days             int
	RecordingsPerDay int
	Lat              float64 // unsigned; hemisphere goes in the markers
	Lon              float64
	EW               string
	MaxDetections    int // per recording
	SampleRate       int
	Seconds          int
	Seed             uint64
	Species          []Species
}

// DefaultOptions matches the Wrangcombe deployment.
func DefaultOptions() Options {
	return Options{
		Monitor:          "wrangcombe_audio1",
		Prefix:           "S4A12345",
		Start:            time.Date(2026, time.January, 20, 5, 0, 0, 0, time.UTC),
		Days:             2,
		RecordingsPerDay: 6,
		Lat:              50.9481,
		Lon:              3.2503,
		EW:               "W",
		MaxDetections:    4,
		SampleRate:       8000,
		Seconds:          1,
		Seed:             42,
		Species:          DefaultSpecies,
	}
}

// Result lists what was written.
type Result struct {
	Batch      string
	Recordings []string // absolute paths
	Detections int
}

// Write generates one DataLoad batch under rawDir. The batch is named after
// the day following the last recording, as the field team offloads cards.
func Write(rawDir string, opts Options) (Result, error) {
	if opts.Days < 1 || opts.RecordingsPerDay < 1 {
		return Result{}, fmt.Errorf("days and recordings per day must be positive")
	}
	if len(opts.Species) == 0 {
		opts.Species = DefaultSpecies
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	loadDay := opts.Start.AddDate(0, 0, opts.Days)
	batch := domain.DataloadPrefix + loadDay.Format("20060102")
	batchDir := filepath.Join(rawDir, opts.Monitor, batch)
	dataDir := filepath.Join(batchDir, domain.RecordingsSubfolder)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", dataDir, err)
	}

	res := Result{Batch: batch}
	var summary [][]string
	step := 24 * time.Hour / time.Duration(opts.RecordingsPerDay+1)
	for d := range opts.Days {
		day := opts.Start.AddDate(0, 0, d)
		for i := range opts.RecordingsPerDay {
			ts := day.Add(time.Duration(i) * step)
			name := fmt.Sprintf("%s_%s.wav", opts.Prefix, ts.Format("20060102_150405"))
			path := filepath.Join(dataDir, name)
			if err := writeSilence(path, opts.SampleRate, opts.Seconds); err != nil {
				return Result{}, err
			}
			n, err := writeSidecar(path+".csv", rng, opts)
			if err != nil {
				return Result{}, err
			}
			res.Recordings = append(res.Recordings, path)
			res.Detections += n
		}
		summary = append(summary, []string{
			day.Format("2006-01-02"), "00:00:00",
			strconv.FormatFloat(opts.Lat, 'f', 4, 64), "N",
			strconv.FormatFloat(opts.Lon, 'f', 4, 64), opts.EW,
			"5.1", strconv.FormatFloat(6+rng.Float64()*4, 'f', 2, 64),
			strconv.Itoa(opts.RecordingsPerDay),
		})
	}

	summaryPath := filepath.Join(batchDir, opts.Prefix+"_Summary.txt")
	if err := writeCSV(summaryPath, []string{"DATE", "TIME", "LAT", "NS", "LON", "EW", "POWER(V)", "TEMP(C)", "#FILES"}, summary); err != nil {
		return Result{}, err
	}
	return res, nil
}

func writeSilence(path string, sampleRate, seconds int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, sampleRate*seconds),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}

func writeSidecar(path string, rng *rand.Rand, opts Options) (int, error) {
	n := rng.IntN(opts.MaxDetections + 1)
	rows := make([][]string, 0, n)
	for i := range n {
		sp := opts.Species[rng.IntN(len(opts.Species))]
		conf := 0.1 + rng.Float64()*0.89
		rows = append(rows, []string{
			strconv.Itoa(i * 3), strconv.Itoa(i*3 + 3),
			sp.Scientific, sp.Common,
			strconv.FormatFloat(conf, 'f', 4, 64),
		})
	}
	if err := writeCSV(path, []string{"Start (s)", "End (s)", "Scientific name", "Common name", "Confidence"}, rows); err != nil {
		return 0, err
	}
	return n, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
