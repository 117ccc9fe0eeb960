// Package index defines the serialized index artifact: the output envelope
// written by harvest runs and read back by the merge converter.
package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/zksync-wtf/harvester/internal/harvest"
)

// Item is one published fact.
type Item struct {
	Value       string `json:"value"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Document is the output envelope. Items are emitted key-sorted; Go's JSON
// encoder writes map keys in ascending byte order, which is the invariant
// the artifact guarantees.
type Document struct {
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Items     map[string]Item `json:"items"`
}

// From converts a run outcome into a Document.
func From(outcome harvest.Outcome) Document {
	items := make(map[string]Item, len(outcome.Items))
	for key, entry := range outcome.Items {
		items[key] = Item{
			Value:       entry.Value,
			URL:         entry.URL,
			Description: entry.Description,
		}
	}
	return Document{
		Source:    outcome.Source,
		FetchedAt: outcome.FetchedAt,
		Items:     items,
	}
}

// Encode renders the document as pretty-printed JSON with a trailing
// newline.
func (d Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and decodes an index document from disk.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied configuration.
	if err != nil {
		return Document{}, fmt.Errorf("read index %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode index %s: %w", path, err)
	}
	return doc, nil
}
