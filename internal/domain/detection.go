package domain

// Detection is one classifier output for a recording.
type Detection struct {
	CommonName     string
	ScientificName string
	Label          string  // "<scientific>_<common>", the grouping key for all views
	Confidence     float64 // 0.0 to 1.0
	StartTime      float64 // seconds from start of recording
	EndTime        float64
}

// DetectionRecord is a Detection enriched with its source recording and
// ingestion context. It is the row schema of batch partitions and the
// master dataset.
type DetectionRecord struct {
	CommonName     string  `parquet:"name=common_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"common_name"`
	ScientificName string  `parquet:"name=scientific_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"scientific_name"`
	Label          string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"label"`
	Confidence     float64 `parquet:"name=confidence, type=DOUBLE" json:"confidence"`
	StartTime      float64 `parquet:"name=start_time, type=DOUBLE" json:"start_time"`
	EndTime        float64 `parquet:"name=end_time, type=DOUBLE" json:"end_time"`
	FileName       string  `parquet:"name=file_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"file_name"`
	FileDate       string  `parquet:"name=file_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"file_date"`
	FileTime       string  `parquet:"name=file_time, type=BYTE_ARRAY, convertedtype=UTF8" json:"file_time"`
	MonitorName    string  `parquet:"name=monitor_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"monitor_name"`
	DataloadBatch  string  `parquet:"name=dataload_batch, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"dataload_batch"`
}

// EnrichDetections attaches recording and ingestion metadata to raw
// classifier output. The result has one record per detection, in order.
func EnrichDetections(detections []Detection, rec RecordingFile, monitor, dataloadBatch string) []DetectionRecord {
	out := make([]DetectionRecord, 0, len(detections))
	for _, d := range detections {
		label := d.Label
		if label == "" {
			label = BuildLabel(d.ScientificName, d.CommonName)
		}
		out = append(out, DetectionRecord{
			CommonName:     d.CommonName,
			ScientificName: d.ScientificName,
			Label:          label,
			Confidence:     d.Confidence,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
			FileName:       rec.Name,
			FileDate:       rec.Date,
			FileTime:       rec.Time,
			MonitorName:    monitor,
			DataloadBatch:  dataloadBatch,
		})
	}
	return out
}

// BuildLabel joins scientific and common name the way BirdNET labels species.
func BuildLabel(scientific, common string) string {
	switch {
	case scientific == "":
		return common
	case common == "":
		return scientific
	default:
		return scientific + "_" + common
	}
}
