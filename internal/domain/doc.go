// Package domain models bioacoustic monitor recordings and the BirdNET
// detections derived from them.
//
// # Data Source
//
// Field monitors (Wildlife Acoustics SM4 units) are collected periodically.
// Each collection is copied to a date-stamped load folder:
//
//	<raw>/<monitor>/DataLoad_YYYYMMDD/
//	    <summary>.txt        SM4 summary log (CSV: DATE,TIME,LAT,NS,LON,EW,...)
//	    Data/*.wav           recordings
//
// # Recording Names
//
// Recording filenames encode the acquisition time in local monitor time:
//
//	<prefix>_YYYYMMDD_HHMMSS.wav  (e.g. "S4A12345_20260121_141329.wav")
//
// The date and time are read by fixed offsets counted back from the
// extension, so the prefix length may vary between units. Dates and times
// are kept as the literal strings found in the name; no timezone conversion
// is ever applied. See [ParseRecordingFile].
//
// # Persisted Layout
//
//	<processed>/<monitor>/processing_manifest.parquet
//	<processed>/<monitor>/monitor_summary_log.parquet
//	<processed>/<monitor>/recordings_batch_YYYYMMDD.parquet   one per calendar day
//	<processed>/<monitor>/recordings_MASTER.parquet
//	<analytics>/<monitor>/<view>.parquet
//
// Every artifact is a Parquet file with a fixed schema given by the row
// structs in this package ([ManifestEntry], [DetectionRecord],
// [MonitorLogEntry] and the view rows).
package domain
