// Package webdata converts harvested index files and chain-listing CSVs
// into the flat record array the zksync-wtf webpage loads.
package webdata

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Record is one row of the webpage dataset.
type Record struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// sortRecords orders records by lowercased key, then lowercased value, so
// output bytes never depend on input order.
func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		ki, kj := strings.ToLower(records[i].Key), strings.ToLower(records[j].Key)
		if ki != kj {
			return ki < kj
		}
		return strings.ToLower(records[i].Value) < strings.ToLower(records[j].Value)
	})
}

// Encode renders records as a pretty-printed JSON array with a trailing
// newline.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
