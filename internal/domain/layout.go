package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Artifact filenames and patterns under a monitor's processed directory.
const (
	ManifestFile        = "processing_manifest.parquet"
	MonitorLogFile      = "monitor_summary_log.parquet"
	MasterFile          = "recordings_MASTER.parquet"
	PartitionPrefix     = "recordings_batch_"
	PartitionExt        = ".parquet"
	DataloadPrefix      = "DataLoad_"
	RecordingsSubfolder = "Data"
)

// Layout resolves artifact paths from the three data roots.
type Layout struct {
	RawDir       string
	ProcessedDir string
	AnalyticsDir string
}

// ValidateMonitor checks that name is one local path element, so it can be
// joined under any data root without escaping it.
func ValidateMonitor(name string) error {
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", ErrInvalidMonitor, name)
	}
	return nil
}

// MonitorRawDir is <raw>/<monitor>.
func (l Layout) MonitorRawDir(monitor string) string {
	return filepath.Join(l.RawDir, monitor)
}

// RecordingsDir is <raw>/<monitor>/<batch>/Data.
func (l Layout) RecordingsDir(monitor, dataloadBatch string) string {
	return filepath.Join(l.RawDir, monitor, dataloadBatch, RecordingsSubfolder)
}

// MonitorProcessedDir is <processed>/<monitor>.
func (l Layout) MonitorProcessedDir(monitor string) string {
	return filepath.Join(l.ProcessedDir, monitor)
}

// ManifestPath locates the processing manifest.
func (l Layout) ManifestPath(monitor string) string {
	return filepath.Join(l.ProcessedDir, monitor, ManifestFile)
}

// MonitorLogPath locates the consolidated SM4 summary log.
func (l Layout) MonitorLogPath(monitor string) string {
	return filepath.Join(l.ProcessedDir, monitor, MonitorLogFile)
}

// PartitionPath locates the batch partition for key (a YYYYMMDD date).
func (l Layout) PartitionPath(monitor, key string) string {
	return filepath.Join(l.ProcessedDir, monitor, PartitionPrefix+key+PartitionExt)
}

// PartitionGlob matches every batch partition of a monitor.
func (l Layout) PartitionGlob(monitor string) string {
	return filepath.Join(l.ProcessedDir, monitor, PartitionPrefix+"*"+PartitionExt)
}

// MasterPath locates the consolidated master dataset.
func (l Layout) MasterPath(monitor string) string {
	return filepath.Join(l.ProcessedDir, monitor, MasterFile)
}

// MonitorAnalyticsDir is <analytics>/<monitor>.
func (l Layout) MonitorAnalyticsDir(monitor string) string {
	return filepath.Join(l.AnalyticsDir, monitor)
}

// ViewPath locates the artifact of a view.
func (l Layout) ViewPath(monitor string, v View) string {
	return filepath.Join(l.AnalyticsDir, monitor, v.FileName())
}

// PartitionKey extracts the key from a partition filename, reporting false
// for any other file.
func PartitionKey(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, PartitionPrefix) || !strings.HasSuffix(base, PartitionExt) {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(base, PartitionPrefix), PartitionExt)
	return key, key != ""
}

// LoadDate extracts YYYYMMDD from a DataLoad_YYYYMMDD folder name.
func LoadDate(dataloadBatch string) string {
	return strings.TrimPrefix(dataloadBatch, DataloadPrefix)
}
