package main

import (
	"testing"

	"github.com/nikopaulanne/dsmr-custom/pkg/config"
	"github.com/nikopaulanne/dsmr-custom/pkg/dispatch"
	"github.com/nikopaulanne/dsmr-custom/pkg/fields"
	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistryBindsStandardAndCustom(t *testing.T) {
	units := fields.BuildIndex(fields.DefaultChannels)
	custom := []config.CustomSensorConfig{
		{Code: "0-2:24.2.1", Name: "pool_meter", Type: "numeric"},
	}

	registry, err := buildRegistry(units, custom)
	require.NoError(t, err)

	// Sealed: late bindings are refused.
	require.Error(t, registry.Bind("1-0:1.8.1", "late", store, dispatch.Standard))

	// Standard field lands in the snapshot store via the hub+store pair.
	n := registry.Dispatch(obis.Code("1-0:1.8.1"), obis.NumericValue(123456, 3, "kWh"))
	require.Equal(t, 2, n)

	// The custom sensor shadows the standard water binding on its code.
	bindings := registry.Bindings(obis.Code("0-2:24.2.1"))
	require.Len(t, bindings, 4)
	n = registry.Dispatch(obis.Code("0-2:24.2.1"), obis.NumericValue(10, 0, "m3"))
	require.Equal(t, 2, n)

	latest := store.Latest()
	require.Contains(t, latest, "1-0:1.8.1")
	require.Contains(t, latest, "0-2:24.2.1")
}

func TestBuildRegistryRejectsBadCustomCode(t *testing.T) {
	units := fields.BuildIndex(fields.DefaultChannels)
	_, err := buildRegistry(units, []config.CustomSensorConfig{
		{Code: "nonsense", Name: "x", Type: "numeric"},
	})
	require.Error(t, err)
}
