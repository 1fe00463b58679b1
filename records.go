package fdicdata

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/mplosser/data-fdic/profile"
)

// LoadRecords decodes a raw dataset file: a JSON array of flat
// objects. Elements wrapped in a "data" envelope, as delivered by the
// API's pagination, are unwrapped.
func LoadRecords(in io.Reader) ([]profile.RawRecord, error) {
	dec := json.NewDecoder(in)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if tok != json.Delim('[') {
		return nil, fmt.Errorf("expected array, got: %v", tok)
	}

	var records []profile.RawRecord

	for dec.More() {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}

		records = append(records, flattenRecord(m))
	}

	return records, nil
}

func flattenRecord(m map[string]interface{}) profile.RawRecord {
	if data, ok := m["data"].(map[string]interface{}); ok {
		return profile.RawRecord(data)
	}
	return profile.RawRecord(m)
}
