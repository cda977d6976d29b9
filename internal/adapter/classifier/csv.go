package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// errNoHeader is returned for output without a recognizable header.
var errNoHeader = errors.New("classifier output has no detection header")

var headerAliases = map[string][]string{
	"start":      {"start (s)", "start_time", "start"},
	"end":        {"end (s)", "end_time", "end"},
	"scientific": {"scientific name", "scientific_name"},
	"common":     {"common name", "common_name"},
	"confidence": {"confidence"},
	"label":      {"label"},
}

// ParseCSV decodes BirdNET CSV results. Empty input means no detections.
func ParseCSV(r io.Reader) ([]domain.Detection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	if _, ok := cols["confidence"]; !ok {
		return nil, errNoHeader
	}
	_, hasSci := cols["scientific"]
	_, hasLabel := cols["label"]
	if !hasSci && !hasLabel {
		return nil, errNoHeader
	}

	var out []domain.Detection
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		conf, err := strconv.ParseFloat(get("confidence"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: confidence: %w", line, err)
		}
		start, _ := strconv.ParseFloat(get("start"), 64)
		end, _ := strconv.ParseFloat(get("end"), 64)

		d := domain.Detection{
			ScientificName: get("scientific"),
			CommonName:     get("common"),
			Label:          get("label"),
			Confidence:     conf,
			StartTime:      start,
			EndTime:        end,
		}
		if d.Label == "" {
			d.Label = domain.BuildLabel(d.ScientificName, d.CommonName)
		}
		if d.ScientificName == "" && d.CommonName == "" {
			d.ScientificName, d.CommonName, _ = strings.Cut(d.Label, "_")
		}
		out = append(out, d)
	}
	return out, nil
}

// FilterConfidence drops detections below floor.
func FilterConfidence(dets []domain.Detection, floor float64) []domain.Detection {
	out := dets[:0]
	for _, d := range dets {
		if d.Confidence >= floor {
			out = append(out, d)
		}
	}
	return out
}

func indexHeader(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make(map[string]int, len(headerAliases))
	for key, aliases := range headerAliases {
		for _, a := range aliases {
			if idx, ok := byName[a]; ok {
				cols[key] = idx
				break
			}
		}
	}
	return cols
}
