package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

const (
	robin = "Erithacus rubecula_European Robin"
	wren  = "Troglodytes troglodytes_Eurasian Wren"
)

func row(date, clock, label string, conf float64) domain.DetectionRecord {
	return domain.DetectionRecord{FileDate: date, FileTime: clock, Label: label, Confidence: conf}
}

func TestDailyStats_SingleSpecies(t *testing.T) {
	rows := []domain.DetectionRecord{
		row("20260121", "060000", robin, 0.9),
		row("20260121", "070000", robin, 0.8),
		row("20260121", "080000", robin, 0.7),
	}

	got := DailyStats(rows)

	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].TotalDetections)
	assert.Equal(t, int64(1), got[0].SpeciesRichness)
	assert.Equal(t, 0.0, got[0].ShannonIndex)
}

func TestDailyStats_TwoSpeciesEven(t *testing.T) {
	rows := []domain.DetectionRecord{
		row("20260122", "060000", robin, 0.9),
		row("20260122", "060000", wren, 0.9),
		row("20260121", "060000", wren, 0.9),
	}

	got := DailyStats(rows)

	want := []domain.DailyStat{
		{Date: "20260121", TotalDetections: 1, SpeciesRichness: 1, ShannonIndex: 0},
		{Date: "20260122", TotalDetections: 2, SpeciesRichness: 2, ShannonIndex: 0.69}, // ln 2
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("daily stats mismatch (-want +got):\n%s", diff)
	}
}

func TestDiversity_Empty(t *testing.T) {
	richness, h := Diversity(nil)
	assert.Zero(t, richness)
	assert.Zero(t, h)
}

func TestDiversity_ThreeWay(t *testing.T) {
	richness, h := Diversity(map[string]int{"a": 2, "b": 1, "c": 1})
	assert.Equal(t, 3, richness)
	assert.Equal(t, 1.04, h) // 1.0397...
}

func TestSpeciesTotals(t *testing.T) {
	rows := []domain.DetectionRecord{
		row("20260121", "060000", wren, 0.9),
		row("20260121", "060000", robin, 0.9),
		row("20260122", "060000", robin, 0.9),
	}

	assert.Equal(t, []domain.SpeciesTotal{
		{Label: robin, Count: 2},
		{Label: wren, Count: 1},
	}, SpeciesTotals(rows))
}

func TestHour(t *testing.T) {
	tests := map[string]string{
		"141329": "14",
		"061329": "06",
		"61329":  "06",
		"5":      "00",
	}
	for in, want := range tests {
		assert.Equal(t, want, Hour(in), in)
	}
}

func TestHourlyActivity(t *testing.T) {
	rows := []domain.DetectionRecord{
		row("20260121", "061000", robin, 0.9),
		row("20260122", "065959", robin, 0.9),
		row("20260121", "140000", robin, 0.9),
		row("20260121", "060000", wren, 0.9),
	}

	assert.Equal(t, []domain.HourlyActivity{
		{Hour: "06", Label: robin, Count: 2},
		{Hour: "06", Label: wren, Count: 1},
		{Hour: "14", Label: robin, Count: 1},
	}, HourlyActivity(rows))
}

func TestDailySpeciesAndUniqueSpecies(t *testing.T) {
	rows := []domain.DetectionRecord{
		row("20260121", "060000", robin, 0.9),
		row("20260121", "070000", robin, 0.9),
		row("20260121", "070000", wren, 0.9),
		row("20260122", "070000", wren, 0.9),
	}

	assert.Equal(t, []domain.DailySpeciesCount{
		{Date: "20260121", Label: robin, Count: 2},
		{Date: "20260121", Label: wren, Count: 1},
		{Date: "20260122", Label: wren, Count: 1},
	}, DailySpecies(rows))

	assert.Equal(t, []domain.DailyUniqueSpecies{
		{Date: "20260121", UniqueSpecies: 2},
		{Date: "20260122", UniqueSpecies: 1},
	}, DailyUniqueSpecies(rows))
}

func TestSpeciesDailyProfile_SixHoursIsQuarterOccupancy(t *testing.T) {
	var rows []domain.DetectionRecord
	for _, clock := range []string{"050000", "051500", "060000", "070000", "080000", "090000", "100000"} {
		rows = append(rows, row("20260121", clock, robin, 0.5))
	}
	rows[0].Confidence = 0.9

	got := SpeciesDailyProfile(rows)

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, int64(7), p.Calls)
	assert.Equal(t, int64(6), p.HoursActive)
	assert.Equal(t, 25.0, p.OccupancyPct)
	assert.InDelta(t, (0.9+6*0.5)/7, p.Confidence, 1e-9)
	assert.Equal(t, 0.9, p.MaxConfidence)
}

func TestOccupancy(t *testing.T) {
	assert.Equal(t, 25.0, Occupancy(6))
	assert.Equal(t, 4.17, Occupancy(1))
	assert.Equal(t, 100.0, Occupancy(24))
	assert.Equal(t, 0.0, Occupancy(0))
}

func TestViewsOfEmptyMaster(t *testing.T) {
	assert.Empty(t, DailyStats(nil))
	assert.Empty(t, SpeciesTotals(nil))
	assert.Empty(t, HourlyActivity(nil))
	assert.Empty(t, DailySpecies(nil))
	assert.Empty(t, DailyUniqueSpecies(nil))
	assert.Empty(t, SpeciesDailyProfile(nil))
}
