package lumes

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrMissingFields = errors.New("datapoint is missing identity fields")

// Datapoint is one reading block for a single station and measurement
// series. Readings holds the numeric cells of the block keyed by column
// name; Type and Unit stay empty when the feed never supplied them.
type Datapoint struct {
	ID       string
	Station  string
	Name     string
	Time     time.Time
	Type     string
	Unit     string
	Readings map[string]float64
}

// DeriveID computes the stable storage identifier
// {YYYYMMDDHHmm}_{station}_{name}_{type}. The type segment stays in the
// format even when empty so re-ingesting a file reproduces the same ids.
func (d *Datapoint) DeriveID() (string, error) {
	if d.Time.IsZero() || d.Station == "" || d.Name == "" {
		return "", ErrMissingFields
	}
	return d.Time.Format("200601021504") + "_" + d.Station + "_" + d.Name + "_" + d.Type, nil
}

// MarshalJSON flattens the readings next to the fixed fields, matching the
// shape of the dataset blob consumers already rely on. Times are ISO-8601;
// empty type/unit are omitted.
func (d Datapoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Readings)+6)
	for k, v := range d.Readings {
		out[k] = v
	}
	out["_id"] = d.ID
	out["station"] = d.Station
	out["name"] = d.Name
	out["time"] = d.Time.Format(time.RFC3339)
	if d.Type != "" {
		out["type"] = d.Type
	}
	if d.Unit != "" {
		out["unit"] = d.Unit
	}
	return json.Marshal(out)
}
