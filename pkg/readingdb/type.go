package readingdb

// ReadingRow is one stored reading. Numeric values keep their wire-form
// decimal scale (scaled * 10^-scale) so nothing is rounded on the way in.
type ReadingRow struct {
	Timestamp int64  `db:"timestamp"`
	ObisCode  string `db:"obis_code"`
	Kind      string `db:"kind"`
	Scaled    int64  `db:"scaled"`
	Scale     int    `db:"scale"`
	Unit      string `db:"unit"`
	Text      string `db:"text"`
}

// AggregateHourlyRow is a per-code hourly average of numeric readings.
type AggregateHourlyRow struct {
	HourStart   int64   `db:"hour_start"`
	ObisCode    string  `db:"obis_code"`
	AvgValue    float64 `db:"avg_value"`
	Unit        string  `db:"unit"`
	SampleCount uint32  `db:"sample_count"`
}
