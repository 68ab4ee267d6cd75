package broadcaster

import (
	"encoding/json"
	"log"

	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
)

// Reading is the wire format for one dispatched value. One message per
// (code, value) pair; consumers reassemble whatever view they need.
type Reading struct {
	Timestamp string  `json:"timestamp"`
	Code      string  `json:"obis_code"`
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Scale     int     `json:"scale"`
	Unit      string  `json:"unit,omitempty"`
	Text      string  `json:"text,omitempty"`
	DST       bool    `json:"dst,omitempty"`
}

func NewReading(timestamp string, code obis.Code, v obis.Value) Reading {
	r := Reading{
		Timestamp: timestamp,
		Code:      string(code),
		Kind:      v.Kind.String(),
	}
	switch v.Kind {
	case obis.KindNumeric:
		r.Value = v.Float()
		r.Scale = v.Scale
		r.Unit = v.Unit
	case obis.KindTimestamp:
		r.Text = v.Time.Format("2006-01-02T15:04:05")
		r.DST = v.DST
	default:
		r.Text = v.Text
	}
	return r
}

func (r *Reading) ToJsonBytes() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("Error marshaling reading: %v", err)
		return nil
	}
	return data
}

// ReadingFromJsonBytes returns nil when the message does not parse.
func ReadingFromJsonBytes(data []byte) *Reading {
	var r Reading
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	if r.Code == "" {
		return nil
	}
	return &r
}
