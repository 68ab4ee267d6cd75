package readingdb

func InsertReading(row *ReadingRow) error {
	db := GetDB()

	_, err := db.Exec(
		"INSERT INTO readings (timestamp, obis_code, kind, scaled, scale, unit, text) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?)",
		row.Timestamp,
		row.ObisCode,
		row.Kind,
		row.Scaled,
		row.Scale,
		row.Unit,
		row.Text,
	)
	if err != nil {
		return err
	}
	return nil
}
