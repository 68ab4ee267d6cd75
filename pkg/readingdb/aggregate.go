package readingdb

import (
	"database/sql"
	"log"
	"time"
)

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// getHourEnd returns the Unix timestamp of the last second of the hour (next hour start - 1)
func getHourEnd(hourStart int64) int64 {
	return time.Unix(hourStart, 0).Add(time.Hour).Unix() - 1
}

// AggregateHourly computes per-code, per-unit averages of the numeric
// readings in the hour containing t and upserts them into
// aggregate_readings_hourly.
func AggregateHourly(t time.Time) error {
	return aggregateHourly(GetDB(), t)
}

func aggregateHourly(db *sql.DB, t time.Time) error {
	hourStart := roundToHourStart(t)
	hourEnd := getHourEnd(hourStart)

	query := `
		SELECT
			obis_code,
			unit,
			AVG(CAST(scaled AS REAL) / POWER(10, scale)) as avg_value,
			COUNT(*) as count
		FROM readings
		WHERE timestamp >= ? AND timestamp <= ? AND kind = 'numeric'
		GROUP BY obis_code, unit
	`

	rows, err := db.Query(query, hourStart, hourEnd)
	if err != nil {
		return err
	}
	defer rows.Close()

	var aggregates []AggregateHourlyRow
	for rows.Next() {
		agg := AggregateHourlyRow{HourStart: hourStart}
		if err := rows.Scan(&agg.ObisCode, &agg.Unit, &agg.AvgValue, &agg.SampleCount); err != nil {
			return err
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	insertQuery := `
		INSERT OR REPLACE INTO aggregate_readings_hourly
		(hour_start, obis_code, avg_value, unit, sample_count)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, agg := range aggregates {
		if _, err := db.Exec(insertQuery, agg.HourStart, agg.ObisCode, agg.AvgValue, agg.Unit, agg.SampleCount); err != nil {
			return err
		}
	}
	return nil
}

// RunHourlyAggregation aggregates the previous hour on every hour boundary.
// Runs until the process exits.
func RunHourlyAggregation() {
	for {
		now := time.Now().UTC()
		nextHour := time.Unix(getHourEnd(roundToHourStart(now))+1, 0)
		time.Sleep(time.Until(nextHour))

		if err := AggregateHourly(now); err != nil {
			log.Printf("Hourly aggregation failed: %v", err)
		}
	}
}
