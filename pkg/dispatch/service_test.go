package dispatch

import (
	"errors"
	"testing"

	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []obis.Value
	err error
}

func (s *recordingSink) Accept(code obis.Code, value obis.Value) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, value)
	return nil
}

func TestDispatchDeliversToBoundSink(t *testing.T) {
	r := NewRegistry()
	sink := &recordingSink{}
	require.NoError(t, r.Bind("1-0:1.8.1", "energy_delivered_tariff1", sink, Standard))
	r.Seal()

	n := r.Dispatch(obis.Code("1-0:1.8.1"), obis.NumericValue(123456, 3, "kWh"))
	require.Equal(t, 1, n)
	require.Len(t, sink.got, 1)
}

func TestDispatchUnboundCodeDroppedSilently(t *testing.T) {
	r := NewRegistry()
	r.Seal()
	n := r.Dispatch(obis.Code("1-0:99.99.9"), obis.TextValue("x"))
	require.Zero(t, n)
	require.Zero(t, r.Rejected())
}

func TestCustomOverridesStandard(t *testing.T) {
	r := NewRegistry()
	standard := &recordingSink{}
	custom := &recordingSink{}
	require.NoError(t, r.Bind("1-0:1.8.1", "energy_delivered_tariff1", standard, Standard))
	require.NoError(t, r.Bind("1-0:1.8.1", "my_energy", custom, Custom))
	r.Seal()

	n := r.Dispatch(obis.Code("1-0:1.8.1"), obis.NumericValue(1, 0, "kWh"))
	require.Equal(t, 1, n)
	require.Empty(t, standard.got)
	require.Len(t, custom.got, 1)
}

func TestSinkFailureDoesNotStopOthers(t *testing.T) {
	r := NewRegistry()
	failing := &recordingSink{err: errors.New("sink full")}
	working := &recordingSink{}
	require.NoError(t, r.Bind("1-0:1.8.1", "failing", failing, Standard))
	require.NoError(t, r.Bind("1-0:1.8.1", "working", working, Standard))
	r.Seal()

	n := r.Dispatch(obis.Code("1-0:1.8.1"), obis.NumericValue(1, 0, "kWh"))
	require.Equal(t, 1, n)
	require.Len(t, working.got, 1)
	require.Equal(t, uint64(1), r.Rejected())
}

func TestBindNormalizesCode(t *testing.T) {
	r := NewRegistry()
	sink := &recordingSink{}
	require.NoError(t, r.Bind("01-0:001.8.1", "energy", sink, Standard))
	r.Seal()

	n := r.Dispatch(obis.Code("1-0:1.8.1"), obis.NumericValue(1, 0, "kWh"))
	require.Equal(t, 1, n)
}

func TestBindIdentification(t *testing.T) {
	r := NewRegistry()
	sink := &recordingSink{}
	require.NoError(t, r.Bind("identification", "identification", sink, Standard))
	r.Seal()

	n := r.Dispatch(obis.Identification, obis.RawValue("TST5 test meter"))
	require.Equal(t, 1, n)
}

func TestBindRejectsInvalidCode(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Bind("not a code", "x", &recordingSink{}, Custom))
}

func TestBindRejectsNilSink(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Bind("1-0:1.8.1", "x", nil, Standard))
}

func TestBindAfterSealFails(t *testing.T) {
	r := NewRegistry()
	r.Seal()
	require.Error(t, r.Bind("1-0:1.8.1", "late", &recordingSink{}, Standard))
}

func TestSinkFunc(t *testing.T) {
	var calls int
	sink := SinkFunc(func(code obis.Code, value obis.Value) error {
		calls++
		return nil
	})
	r := NewRegistry()
	require.NoError(t, r.Bind("1-0:1.8.1", "fn", sink, Standard))
	r.Seal()
	r.Dispatch(obis.Code("1-0:1.8.1"), obis.NumericValue(1, 0, ""))
	require.Equal(t, 1, calls)
}
