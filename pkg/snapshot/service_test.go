package snapshot

import (
	"testing"

	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
	"github.com/stretchr/testify/require"
)

func TestStoreKeepsLatestPerCode(t *testing.T) {
	s := NewStore()
	require.True(t, s.Empty())

	code := obis.Code("1-0:1.7.0")
	require.NoError(t, s.Accept(code, obis.NumericValue(1000, 3, "kW")))
	require.NoError(t, s.Accept(code, obis.NumericValue(2000, 3, "kW")))
	require.NoError(t, s.Accept(obis.Code("0-0:96.14.0"), obis.TextValue("0002")))

	require.False(t, s.Empty())
	latest := s.Latest()
	require.Len(t, latest, 2)
	require.InDelta(t, 2.0, latest["1-0:1.7.0"].Value, 1e-9)
	require.Equal(t, "0002", latest["0-0:96.14.0"].Text)
}

func TestLatestReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Accept(obis.Code("1-0:1.7.0"), obis.NumericValue(1, 0, "kW")))

	latest := s.Latest()
	delete(latest, "1-0:1.7.0")
	require.False(t, s.Empty())
	require.Len(t, s.Latest(), 1)
}
