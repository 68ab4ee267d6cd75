// Package fields declares the standard OBIS fields a P1 telegram can carry.
// The parser recognizes the full grammar regardless of this table; the table
// supplies symbolic names for standard bindings and the expected unit per
// code so the parser can flag (but still forward) surprises.
package fields

import "github.com/nikopaulanne/dsmr-custom/pkg/obis"

type Field struct {
	Name string
	Code obis.Code
	Kind obis.Kind
	// Unit is the expected decimal-form unit, AltUnit the integer-form
	// alternative some meters emit (kWh vs Wh and so on). Empty means
	// unitless.
	Unit    string
	AltUnit string
}

// Channel ids distinguishing M-Bus sub-meters sharing the telegram stream.
type Channels struct {
	Gas     int
	Water   int
	Thermal int
	Sub     int
}

// DefaultChannels matches the common Dutch/Belgian residential setup.
var DefaultChannels = Channels{Gas: 1, Water: 2, Thermal: 3, Sub: 4}

// Table builds the standard field list for the given channel assignment.
func Table(ch Channels) []Field {
	c := func(a, b, cc, d, e int) obis.Code { return obis.FromGroups(a, b, cc, d, e) }

	fields := []Field{
		{Name: "identification", Code: obis.Identification, Kind: obis.KindRaw},
		{Name: "p1_version", Code: c(1, 3, 0, 2, 8), Kind: obis.KindText},
		{Name: "p1_version_be", Code: c(0, 0, 96, 1, 4), Kind: obis.KindText},
		{Name: "timestamp", Code: c(0, 0, 1, 0, 0), Kind: obis.KindTimestamp},
		{Name: "equipment_id", Code: c(0, 0, 96, 1, 1), Kind: obis.KindText},

		{Name: "energy_delivered_lux", Code: c(1, 0, 1, 8, 0), Kind: obis.KindNumeric, Unit: "kWh", AltUnit: "Wh"},
		{Name: "energy_delivered_tariff1", Code: c(1, 0, 1, 8, 1), Kind: obis.KindNumeric, Unit: "kWh", AltUnit: "Wh"},
		{Name: "energy_delivered_tariff2", Code: c(1, 0, 1, 8, 2), Kind: obis.KindNumeric, Unit: "kWh", AltUnit: "Wh"},
		{Name: "energy_returned_lux", Code: c(1, 0, 2, 8, 0), Kind: obis.KindNumeric, Unit: "kWh", AltUnit: "Wh"},
		{Name: "energy_returned_tariff1", Code: c(1, 0, 2, 8, 1), Kind: obis.KindNumeric, Unit: "kWh", AltUnit: "Wh"},
		{Name: "energy_returned_tariff2", Code: c(1, 0, 2, 8, 2), Kind: obis.KindNumeric, Unit: "kWh", AltUnit: "Wh"},
		{Name: "total_imported_energy", Code: c(1, 0, 3, 8, 0), Kind: obis.KindNumeric, Unit: "kvarh", AltUnit: "kvarh"},
		{Name: "total_exported_energy", Code: c(1, 0, 4, 8, 0), Kind: obis.KindNumeric, Unit: "kvarh", AltUnit: "kvarh"},

		{Name: "electricity_tariff", Code: c(0, 0, 96, 14, 0), Kind: obis.KindText},
		{Name: "power_delivered", Code: c(1, 0, 1, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "power_returned", Code: c(1, 0, 2, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "reactive_power_delivered", Code: c(1, 0, 3, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "reactive_power_returned", Code: c(1, 0, 4, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "electricity_threshold", Code: c(0, 0, 17, 0, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "electricity_switch_position", Code: c(0, 0, 96, 3, 10), Kind: obis.KindNumeric},
		{Name: "electricity_failures", Code: c(0, 0, 96, 7, 21), Kind: obis.KindNumeric},
		{Name: "electricity_long_failures", Code: c(0, 0, 96, 7, 9), Kind: obis.KindNumeric},
		{Name: "electricity_failure_log", Code: c(1, 0, 99, 97, 0), Kind: obis.KindRaw},

		{Name: "electricity_sags_l1", Code: c(1, 0, 32, 32, 0), Kind: obis.KindNumeric},
		{Name: "electricity_sags_l2", Code: c(1, 0, 52, 32, 0), Kind: obis.KindNumeric},
		{Name: "electricity_sags_l3", Code: c(1, 0, 72, 32, 0), Kind: obis.KindNumeric},
		{Name: "electricity_swells_l1", Code: c(1, 0, 32, 36, 0), Kind: obis.KindNumeric},
		{Name: "electricity_swells_l2", Code: c(1, 0, 52, 36, 0), Kind: obis.KindNumeric},
		{Name: "electricity_swells_l3", Code: c(1, 0, 72, 36, 0), Kind: obis.KindNumeric},

		{Name: "message_short", Code: c(0, 0, 96, 13, 1), Kind: obis.KindText},
		{Name: "message_long", Code: c(0, 0, 96, 13, 0), Kind: obis.KindText},

		{Name: "voltage_l1", Code: c(1, 0, 32, 7, 0), Kind: obis.KindNumeric, Unit: "V", AltUnit: "mV"},
		{Name: "voltage_l2", Code: c(1, 0, 52, 7, 0), Kind: obis.KindNumeric, Unit: "V", AltUnit: "mV"},
		{Name: "voltage_l3", Code: c(1, 0, 72, 7, 0), Kind: obis.KindNumeric, Unit: "V", AltUnit: "mV"},
		{Name: "frequency", Code: c(1, 0, 14, 7, 0), Kind: obis.KindNumeric, Unit: "kHz", AltUnit: "Hz"},
		{Name: "current_l1", Code: c(1, 0, 31, 7, 0), Kind: obis.KindNumeric, Unit: "A", AltUnit: "mA"},
		{Name: "current_l2", Code: c(1, 0, 51, 7, 0), Kind: obis.KindNumeric, Unit: "A", AltUnit: "mA"},
		{Name: "current_l3", Code: c(1, 0, 71, 7, 0), Kind: obis.KindNumeric, Unit: "A", AltUnit: "mA"},

		{Name: "power_delivered_l1", Code: c(1, 0, 21, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "power_delivered_l2", Code: c(1, 0, 41, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "power_delivered_l3", Code: c(1, 0, 61, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "power_returned_l1", Code: c(1, 0, 22, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "power_returned_l2", Code: c(1, 0, 42, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "power_returned_l3", Code: c(1, 0, 62, 7, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "reactive_power_delivered_l1", Code: c(1, 0, 23, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "reactive_power_delivered_l2", Code: c(1, 0, 43, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "reactive_power_delivered_l3", Code: c(1, 0, 63, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "reactive_power_returned_l1", Code: c(1, 0, 24, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "reactive_power_returned_l2", Code: c(1, 0, 44, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},
		{Name: "reactive_power_returned_l3", Code: c(1, 0, 64, 7, 0), Kind: obis.KindNumeric, Unit: "kvar", AltUnit: "kvar"},

		{Name: "active_energy_import_maximum_demand_running_month", Code: c(1, 0, 1, 6, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},
		{Name: "active_energy_import_maximum_demand_last_13_months", Code: c(0, 0, 98, 1, 0), Kind: obis.KindNumeric, Unit: "kW", AltUnit: "W"},

		{Name: "fw_core_version", Code: c(1, 0, 0, 2, 0), Kind: obis.KindNumeric},
		{Name: "fw_core_checksum", Code: c(1, 0, 0, 2, 8), Kind: obis.KindText},
	}

	mbus := func(prefix string, id int, delivered, deliveredUnit, deliveredAlt string) []Field {
		return []Field{
			{Name: prefix + "_device_type", Code: c(0, id, 24, 1, 0), Kind: obis.KindNumeric},
			{Name: prefix + "_equipment_id", Code: c(0, id, 96, 1, 0), Kind: obis.KindText},
			{Name: prefix + "_valve_position", Code: c(0, id, 24, 4, 0), Kind: obis.KindNumeric},
			{Name: delivered, Code: c(0, id, 24, 2, 1), Kind: obis.KindNumeric, Unit: deliveredUnit, AltUnit: deliveredAlt},
		}
	}

	fields = append(fields, mbus("gas", ch.Gas, "gas_delivered", "m3", "dm3")...)
	// Belgian meters report gas on 24.2.3 instead of 24.2.1.
	fields = append(fields,
		Field{Name: "gas_delivered_be", Code: c(0, ch.Gas, 24, 2, 3), Kind: obis.KindNumeric, Unit: "m3", AltUnit: "dm3"},
		Field{Name: "gas_equipment_id_be", Code: c(0, ch.Gas, 96, 1, 1), Kind: obis.KindText},
	)
	fields = append(fields, mbus("water", ch.Water, "water_delivered", "m3", "dm3")...)
	fields = append(fields, mbus("thermal", ch.Thermal, "thermal_delivered", "GJ", "MJ")...)
	fields = append(fields, mbus("sub", ch.Sub, "sub_delivered", "m3", "dm3")...)

	return fields
}

// Index maps codes to their field definition for unit lookups.
type Index map[obis.Code]Field

func BuildIndex(ch Channels) Index {
	idx := make(Index)
	for _, f := range Table(ch) {
		idx[f.Code] = f
	}
	return idx
}

// ExpectedUnit reports the unit(s) a code is expected to carry. ok is false
// for unknown codes, which simply means the parser has nothing to check.
func (idx Index) ExpectedUnit(code obis.Code) (unit, alt string, ok bool) {
	f, found := idx[code]
	if !found {
		return "", "", false
	}
	return f.Unit, f.AltUnit, true
}
