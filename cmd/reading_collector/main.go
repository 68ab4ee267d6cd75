// Responsible for storing the readings collected from the smart meter.
// Depends on the telegram API being online.
package main

import (
	"log"
	"math"
	"time"

	"github.com/nikopaulanne/dsmr-custom/pkg/broadcaster"
	"github.com/nikopaulanne/dsmr-custom/pkg/collector"
	"github.com/nikopaulanne/dsmr-custom/pkg/config"
	"github.com/nikopaulanne/dsmr-custom/pkg/readingdb"
)

func main() {
	// Load config
	if err := config.LoadReadingCollectorConfig(); err != nil {
		log.Fatalf("Failed to load reading collector config: %v", err)
	}

	// Initialize database
	readingdb.InitializeDatabase()

	// Compact numeric readings into hourly averages in the background
	go readingdb.RunHourlyAggregation()

	// Subscribe to websocket with revive
	collector.StartListener(config.ActiveReadingCollectorConfig.TelegramAPIHost, handleReading)
}

// Handle a decoded reading from the telegram API
func handleReading(reading *broadcaster.Reading) {
	timestamp := time.Now().Unix()
	if t, err := time.Parse(time.RFC3339, reading.Timestamp); err == nil {
		timestamp = t.Unix()
	}

	row := &readingdb.ReadingRow{
		Timestamp: timestamp,
		ObisCode:  reading.Code,
		Kind:      reading.Kind,
		Scaled:    int64(math.Round(reading.Value * math.Pow10(reading.Scale))),
		Scale:     reading.Scale,
		Unit:      reading.Unit,
		Text:      reading.Text,
	}
	if err := readingdb.InsertReading(row); err != nil {
		log.Printf("Failed to store reading %s: %v", reading.Code, err)
	}
}
