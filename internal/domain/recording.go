package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// recordingSuffixLen is len("_YYYYMMDD_HHMMSS").
const recordingSuffixLen = 16

// RecordingFile is a raw recording identified by its filename.
type RecordingFile struct {
	Name  string // base filename, e.g. "S4A12345_20260121_141329.wav"
	Date  string // YYYYMMDD as found in the name
	Time  string // HHMMSS as found in the name
	Year  int
	Month time.Month
	Day   int
}

// ParseRecordingFile extracts the acquisition date and time from a recording
// name. The layout is <prefix>_YYYYMMDD_HHMMSS.<ext>; offsets are counted
// back from the extension. Any deviation returns ErrInvalidFileName.
func ParseRecordingFile(name string) (RecordingFile, error) {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" || len(stem) <= recordingSuffixLen {
		return RecordingFile{}, fmt.Errorf("%w: %q", ErrInvalidFileName, base)
	}

	n := len(stem)
	if stem[n-16] != '_' || stem[n-7] != '_' {
		return RecordingFile{}, fmt.Errorf("%w: %q: missing separators", ErrInvalidFileName, base)
	}
	date := stem[n-15 : n-7]
	clockTime := stem[n-6:]
	if !isDigits(date) || !isDigits(clockTime) {
		return RecordingFile{}, fmt.Errorf("%w: %q: non-numeric timestamp", ErrInvalidFileName, base)
	}

	ts, err := time.Parse("20060102150405", date+clockTime)
	if err != nil {
		return RecordingFile{}, fmt.Errorf("%w: %q: %v", ErrInvalidFileName, base, err)
	}

	return RecordingFile{
		Name:  base,
		Date:  date,
		Time:  clockTime,
		Year:  ts.Year(),
		Month: ts.Month(),
		Day:   ts.Day(),
	}, nil
}

// CaptureDate returns the recording day at midnight UTC. Only the calendar
// fields are meaningful.
func (r RecordingFile) CaptureDate() time.Time {
	return time.Date(r.Year, r.Month, r.Day, 0, 0, 0, 0, time.UTC)
}

// IsWAV reports whether name carries a .wav extension, case-insensitively.
func IsWAV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".wav")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
