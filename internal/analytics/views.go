// Package analytics derives aggregate views from a monitor's master dataset.
//
// Every view is a pure function of the master rows. Views never read one
// another, so they can be recomputed independently and in any order.
// Grouping uses exact string equality on the filename-local date, time and
// label fields; nothing is converted to UTC.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// hoursPerDay is the number of occupancy blocks in a day.
const hoursPerDay = 24

// DailyStats groups rows by date and reports volume and diversity per day.
func DailyStats(rows []domain.DetectionRecord) []domain.DailyStat {
	byDate := make(map[string]map[string]int)
	for _, r := range rows {
		labels, ok := byDate[r.FileDate]
		if !ok {
			labels = make(map[string]int)
			byDate[r.FileDate] = labels
		}
		labels[r.Label]++
	}

	out := make([]domain.DailyStat, 0, len(byDate))
	for date, labels := range byDate {
		richness, shannon := Diversity(labels)
		total := 0
		for _, n := range labels {
			total += n
		}
		out = append(out, domain.DailyStat{
			Date:            date,
			TotalDetections: int64(total),
			SpeciesRichness: int64(richness),
			ShannonIndex:    shannon,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Diversity returns the species richness and the Shannon index (natural
// log, two decimals) of a label frequency table. An empty table has
// richness 0 and index 0.
func Diversity(counts map[string]int) (int, float64) {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0, 0
	}

	var h float64
	for _, n := range counts {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		h -= p * math.Log(p)
	}
	richness := 0
	for _, n := range counts {
		if n > 0 {
			richness++
		}
	}
	return richness, round2(h)
}

// SpeciesTotals counts rows per label, most frequent first.
func SpeciesTotals(rows []domain.DetectionRecord) []domain.SpeciesTotal {
	counts := make(map[string]int64)
	for _, r := range rows {
		counts[r.Label]++
	}
	out := make([]domain.SpeciesTotal, 0, len(counts))
	for label, n := range counts {
		out = append(out, domain.SpeciesTotal{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

type hourLabel struct{ hour, label string }

// HourlyActivity counts rows per (hour, label).
func HourlyActivity(rows []domain.DetectionRecord) []domain.HourlyActivity {
	counts := make(map[hourLabel]int64)
	for _, r := range rows {
		counts[hourLabel{Hour(r.FileTime), r.Label}]++
	}
	out := make([]domain.HourlyActivity, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.HourlyActivity{Hour: k.hour, Label: k.label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Hour returns the first two characters of the zero-padded six-digit time.
func Hour(clock string) string {
	if len(clock) < 6 {
		clock = strings.Repeat("0", 6-len(clock)) + clock
	}
	return clock[:2]
}

type dateLabel struct{ date, label string }

// DailySpecies counts rows per (date, label). This is the literal
// "daily unique species" rollup: because the label is fixed within each
// group, the figure is the number of detections of that species that day.
func DailySpecies(rows []domain.DetectionRecord) []domain.DailySpeciesCount {
	counts := make(map[dateLabel]int64)
	for _, r := range rows {
		counts[dateLabel{r.FileDate, r.Label}]++
	}
	out := make([]domain.DailySpeciesCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.DailySpeciesCount{Date: k.date, Label: k.label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// DailyUniqueSpecies counts the distinct labels present on each date.
func DailyUniqueSpecies(rows []domain.DetectionRecord) []domain.DailyUniqueSpecies {
	byDate := make(map[string]map[string]struct{})
	for _, r := range rows {
		labels, ok := byDate[r.FileDate]
		if !ok {
			labels = make(map[string]struct{})
			byDate[r.FileDate] = labels
		}
		labels[r.Label] = struct{}{}
	}
	out := make([]domain.DailyUniqueSpecies, 0, len(byDate))
	for date, labels := range byDate {
		out = append(out, domain.DailyUniqueSpecies{Date: date, UniqueSpecies: int64(len(labels))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type profileAcc struct {
	calls   int64
	hours   map[string]struct{}
	confSum float64
	confMax float64
}

// SpeciesDailyProfile summarizes each species' activity per day.
func SpeciesDailyProfile(rows []domain.DetectionRecord) []domain.SpeciesDailyProfile {
	accs := make(map[dateLabel]*profileAcc)
	for _, r := range rows {
		k := dateLabel{r.FileDate, r.Label}
		a, ok := accs[k]
		if !ok {
			a = &profileAcc{hours: make(map[string]struct{}), confMax: r.Confidence}
			accs[k] = a
		}
		a.calls++
		a.hours[Hour(r.FileTime)] = struct{}{}
		a.confSum += r.Confidence
		a.confMax = math.Max(a.confMax, r.Confidence)
	}

	out := make([]domain.SpeciesDailyProfile, 0, len(accs))
	for k, a := range accs {
		hours := int64(len(a.hours))
		out = append(out, domain.SpeciesDailyProfile{
			Date:          k.date,
			Label:         k.label,
			Calls:         a.calls,
			HoursActive:   hours,
			OccupancyPct:  Occupancy(hours),
			Confidence:    a.confSum / float64(a.calls),
			MaxConfidence: a.confMax,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Occupancy is the share of the day's hour blocks with activity, as a
// percentage rounded to two decimals.
func Occupancy(hoursActive int64) float64 {
	return round2(float64(hoursActive) / hoursPerDay * 100)
}

// round2 rounds half to even at two decimals.
func round2(v float64) float64 {
	r := math.RoundToEven(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
