package domain

import "time"

// ManifestTimeLayout is the layout of ManifestEntry.LastUpdated.
const ManifestTimeLayout = "2006-01-02 15:04:05"

// ManifestEntry is the processing state of one recording.
//
// Processed means the file was submitted to the classifier in some run.
// Success means that submission produced at least one detection.
type ManifestEntry struct {
	FileName    string `parquet:"name=file_name, type=BYTE_ARRAY, convertedtype=UTF8" json:"file_name"`
	Processed   bool   `parquet:"name=processed, type=BOOLEAN" json:"processed"`
	Success     bool   `parquet:"name=success, type=BOOLEAN" json:"success"`
	LastUpdated string `parquet:"name=last_updated, type=BYTE_ARRAY, convertedtype=UTF8" json:"last_updated"`
}

// NewManifestEntry stamps an entry with the current package clock time.
func NewManifestEntry(fileName string, processed, success bool) ManifestEntry {
	return ManifestEntry{
		FileName:    fileName,
		Processed:   processed,
		Success:     success,
		LastUpdated: clock.Now().Format(ManifestTimeLayout),
	}
}

// UpdatedAt parses LastUpdated. The zero time is returned when it is unset
// or malformed.
func (e ManifestEntry) UpdatedAt() time.Time {
	t, err := time.Parse(ManifestTimeLayout, e.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t
}
