package domain

// MonitorLogEntry is one row of an SM4 summary log, annotated with the load
// batch it came from. Rows are stored in append order: load folders by
// name, then file order within each summary.
type MonitorLogEntry struct {
	Date          string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8" json:"date"`
	Time          string  `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8" json:"time"`
	Lat           float64 `parquet:"name=lat, type=DOUBLE" json:"lat"`
	NS            string  `parquet:"name=ns, type=BYTE_ARRAY, convertedtype=UTF8" json:"ns"`
	Lon           float64 `parquet:"name=lon, type=DOUBLE" json:"lon"`
	EW            string  `parquet:"name=ew, type=BYTE_ARRAY, convertedtype=UTF8" json:"ew"`
	PowerV        float64 `parquet:"name=power_v, type=DOUBLE" json:"power_v"`
	TempC         float64 `parquet:"name=temp_c, type=DOUBLE" json:"temp_c"`
	Files         int64   `parquet:"name=files, type=INT64" json:"files"`
	MonitorName   string  `parquet:"name=monitor_name, type=BYTE_ARRAY, convertedtype=UTF8" json:"monitor_name"`
	DataloadBatch string  `parquet:"name=dataload_batch, type=BYTE_ARRAY, convertedtype=UTF8" json:"dataload_batch"`
	LoadDate      string  `parquet:"name=load_date, type=BYTE_ARRAY, convertedtype=UTF8" json:"load_date"`
	SourceFile    string  `parquet:"name=source_file, type=BYTE_ARRAY, convertedtype=UTF8" json:"source_file"`
}

// Coordinates is a WGS-84 position in signed decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DefaultCoordinates is used when a monitor has no summary log.
var DefaultCoordinates = Coordinates{Lat: 50.9481, Lon: -3.2503}
