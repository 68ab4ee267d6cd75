package broadcaster

import (
	"testing"
	"time"

	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
	"github.com/stretchr/testify/require"
)

func TestNewReadingNumeric(t *testing.T) {
	r := NewReading("2025-03-01T12:00:00Z", obis.Code("1-0:1.8.1"), obis.NumericValue(123456, 3, "kWh"))
	require.Equal(t, "numeric", r.Kind)
	require.InDelta(t, 123.456, r.Value, 1e-9)
	require.Equal(t, 3, r.Scale)
	require.Equal(t, "kWh", r.Unit)
}

func TestNewReadingTimestamp(t *testing.T) {
	ts := time.Date(2024, 12, 24, 12, 34, 56, 0, time.UTC)
	r := NewReading("2025-03-01T12:00:00Z", obis.Code("0-0:1.0.0"), obis.TimestampValue(ts, true))
	require.Equal(t, "timestamp", r.Kind)
	require.Equal(t, "2024-12-24T12:34:56", r.Text)
	require.True(t, r.DST)
}

func TestReadingJsonRoundTrip(t *testing.T) {
	r := NewReading("2025-03-01T12:00:00Z", obis.Code("1-0:1.7.0"), obis.NumericValue(1500, 3, "kW"))
	data := r.ToJsonBytes()
	require.NotNil(t, data)

	got := ReadingFromJsonBytes(data)
	require.NotNil(t, got)
	require.Equal(t, r, *got)
}

func TestReadingFromJsonBytesRejectsGarbage(t *testing.T) {
	require.Nil(t, ReadingFromJsonBytes([]byte("not json")))
	require.Nil(t, ReadingFromJsonBytes([]byte("{}")))
}
