package chain

import (
	"strings"

	"github.com/zksync-wtf/harvester/internal/index"
)

// LoadMapping reads a previously harvested chains index and extracts the
// chain-id to display-name mapping from its "chain_id for {name}" items.
func LoadMapping(path string) (map[string]string, error) {
	doc, err := index.Load(path)
	if err != nil {
		return nil, err
	}
	mapping := make(map[string]string)
	for key, item := range doc.Items {
		name, ok := strings.CutPrefix(key, "chain_id for")
		if !ok {
			continue
		}
		mapping[item.Value] = strings.TrimSpace(name)
	}
	return mapping, nil
}
