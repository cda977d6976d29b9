package domain

import "fmt"

// View names a derived analytical artifact.
type View string

const (
	ViewDailyStats          View = "daily-stats"
	ViewSpeciesTotals       View = "species-totals"
	ViewHourlyPatterns      View = "hourly-patterns"
	ViewDailySpecies        View = "daily-species"
	ViewDailyUniqueSpecies  View = "daily-unique-species"
	ViewSpeciesDailyProfile View = "species-daily-profile"
)

// viewFiles maps each view to its artifact filename.
var viewFiles = map[View]string{
	ViewDailyStats:          "daily_summary.parquet",
	ViewSpeciesTotals:       "species_totals.parquet",
	ViewHourlyPatterns:      "hourly_activity_patterns.parquet",
	ViewDailySpecies:        "daily_species.parquet",
	ViewDailyUniqueSpecies:  "daily_unique_species.parquet",
	ViewSpeciesDailyProfile: "species_daily_profile.parquet",
}

// Views lists the catalog in a stable order.
func Views() []View {
	return []View{
		ViewDailyStats,
		ViewSpeciesTotals,
		ViewHourlyPatterns,
		ViewDailySpecies,
		ViewDailyUniqueSpecies,
		ViewSpeciesDailyProfile,
	}
}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	v := View(s)
	if _, ok := viewFiles[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
	return v, nil
}

// FileName returns the artifact filename for the view.
func (v View) FileName() string {
	return viewFiles[v]
}

// ViewForFile is the reverse of FileName.
func ViewForFile(name string) (View, bool) {
	for v, f := range viewFiles {
		if f == name {
			return v, true
		}
	}
	return "", false
}

// DailyStat summarizes one calendar day.
type DailyStat struct {
	Date            string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8" json:"date"`
	TotalDetections int64   `parquet:"name=total_detections, type=INT64" json:"total_detections"`
	SpeciesRichness int64   `parquet:"name=species_richness, type=INT64" json:"species_richness"`
	ShannonIndex    float64 `parquet:"name=shannon_index, type=DOUBLE" json:"shannon_index"`
}

// SpeciesTotal counts all detections of one label.
type SpeciesTotal struct {
	Label string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8" json:"label"`
	Count int64  `parquet:"name=count, type=INT64" json:"count"`
}

// HourlyActivity counts detections of one label in one hour of day.
type HourlyActivity struct {
	Hour  string `parquet:"name=hour, type=BYTE_ARRAY, convertedtype=UTF8" json:"hour"`
	Label string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8" json:"label"`
	Count int64  `parquet:"name=count, type=INT64" json:"count"`
}

// DailySpeciesCount counts detections of one label on one day.
type DailySpeciesCount struct {
	Date  string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8" json:"date"`
	Label string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8" json:"label"`
	Count int64  `parquet:"name=count, type=INT64" json:"count"`
}

// DailyUniqueSpecies counts distinct labels present on one day.
type DailyUniqueSpecies struct {
	Date          string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8" json:"date"`
	UniqueSpecies int64  `parquet:"name=unique_species, type=INT64" json:"unique_species"`
}

// SpeciesDailyProfile describes one label's activity on one day.
type SpeciesDailyProfile struct {
	Date          string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8" json:"date"`
	Label         string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8" json:"label"`
	Calls         int64   `parquet:"name=calls, type=INT64" json:"calls"`
	HoursActive   int64   `parquet:"name=hours_active, type=INT64" json:"hours_active"`
	OccupancyPct  float64 `parquet:"name=occupancy_pct, type=DOUBLE" json:"occupancy_pct"`
	Confidence    float64 `parquet:"name=confidence, type=DOUBLE" json:"confidence"`
	MaxConfidence float64 `parquet:"name=max_confidence, type=DOUBLE" json:"max_confidence"`
}
