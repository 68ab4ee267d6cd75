package obis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCanonical(t *testing.T) {
	code, err := Parse("1-0:1.8.1")
	require.NoError(t, err)
	require.Equal(t, Code("1-0:1.8.1"), code)
}

func TestParseNormalizesWhitespaceAndZeros(t *testing.T) {
	code, err := Parse(" 01-0:001.8.1 ")
	require.NoError(t, err)
	require.Equal(t, Code("1-0:1.8.1"), code)
}

func TestParseSixGroups(t *testing.T) {
	code, err := Parse("1-0:99.97.0.255")
	require.NoError(t, err)
	require.Equal(t, Code("1-0:99.97.0.255"), code)
}

func TestParseRejectsGroupAbove255(t *testing.T) {
	_, err := Parse("1-0:256.8.1")
	require.Error(t, err)
}

func TestParseRejectsBadSeparators(t *testing.T) {
	for _, bad := range []string{"1:0-1.8.1", "1-0:1-8-1", "1-0:1.8", "", "a-b:c.d.e", "1-0:1..1"} {
		_, err := Parse(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestFromGroups(t *testing.T) {
	require.Equal(t, Code("0-1:24.2.1"), FromGroups(0, 1, 24, 2, 1))
}

func TestParseTimestampWinter(t *testing.T) {
	ts, dst, err := ParseTimestamp("241224123456W")
	require.NoError(t, err)
	require.False(t, dst)
	require.Equal(t, time.Date(2024, 12, 24, 12, 34, 56, 0, time.UTC), ts)
}

func TestParseTimestampSummer(t *testing.T) {
	_, dst, err := ParseTimestamp("240615083000S")
	require.NoError(t, err)
	require.True(t, dst)
}

func TestParseTimestampRejectsBadInput(t *testing.T) {
	for _, bad := range []string{"241224123456", "241224123456X", "24122412345W", "2412241234567", "24122412345AW"} {
		_, _, err := ParseTimestamp(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestNumericValuePreservesScale(t *testing.T) {
	v := NumericValue(123456, 3, "kWh")
	require.Equal(t, int64(123456), v.Scaled)
	require.Equal(t, 3, v.Scale)
	require.InDelta(t, 123.456, v.Float(), 1e-9)
}

func TestValueKindStrings(t *testing.T) {
	require.Equal(t, "numeric", KindNumeric.String())
	require.Equal(t, "text", KindText.String())
	require.Equal(t, "timestamp", KindTimestamp.String())
	require.Equal(t, "raw", KindRaw.String())
}
