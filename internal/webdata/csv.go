package webdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	urlSplit   = regexp.MustCompile(`[\s,;|]+`)
	digitMatch = regexp.MustCompile(`\d+`)
)

// urlColumn is one URL-bearing CSV column the converter knows about.
type urlColumn struct {
	kind    string
	aliases []string
}

// urlColumns lists the recognized URL columns in output-label order. The
// alias lists follow the chain-listing spreadsheet's historical header
// spellings.
var urlColumns = []urlColumn{
	{kind: "MLExplorer", aliases: []string{"ml explorer", "mlexplorer", "explorer"}},
	{kind: "AltExplorer", aliases: []string{"alt explorer", "altexplorer"}},
	{kind: "Portal", aliases: []string{"portal", "bridge"}},
	{kind: "HTTPS RPC", aliases: []string{"https rpc", "rpc", "rpc url"}},
}

var nameAliases = []string{"name", "chain name", "chain", "network", "title"}
var chainIDAliases = []string{"chain id", "chainid", "id"}

// ConvertCSV reads a chain-listing CSV and emits one record per chain id
// and per URL found in the recognized columns of every live row. Rows
// whose Status column is not "live" (case-insensitive) are dropped; when
// the CSV carries no status column at all, every row is kept.
func ConvertCSV(path string, logger *zap.Logger) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	header := rows[0]
	statusCol := findColumn(header, []string{"status"})
	nameCol := findColumn(header, nameAliases)
	// A missing status column keeps every row eligible rather than failing
	// the conversion.
	if statusCol < 0 {
		logger.Warn("CSV has no status column; keeping all rows", zap.String("path", path))
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("csv has no chain name column")
	}
	chainIDCol := findColumn(header, chainIDAliases)

	type colBinding struct {
		kind  string
		index int
	}
	var bound []colBinding
	for _, col := range urlColumns {
		if idx := findColumn(header, col.aliases); idx >= 0 {
			bound = append(bound, colBinding{kind: col.kind, index: idx})
		}
	}
	if chainIDCol < 0 && len(bound) == 0 {
		logger.Warn("CSV has no chain id or URL columns", zap.String("path", path))
	}

	var records []Record
	seen := make(map[Record]struct{})
	add := func(r Record) {
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		records = append(records, r)
	}

	for _, row := range rows[1:] {
		if statusCol >= 0 && !strings.EqualFold(strings.TrimSpace(cell(row, statusCol)), "live") {
			continue
		}
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}

		if chainIDCol >= 0 {
			if id := digitMatch.FindString(cell(row, chainIDCol)); id != "" {
				add(Record{
					Key:         fmt.Sprintf("chain_id for %s", name),
					Value:       id,
					Description: fmt.Sprintf("Chain ID %s for %s", id, name),
					URL:         fmt.Sprintf("https://chainlist.org/chain/%s", id),
				})
			}
		}

		for _, binding := range bound {
			for _, u := range splitURLs(cell(row, binding.index)) {
				add(Record{
					Key:         fmt.Sprintf("%s for %s", binding.kind, name),
					Value:       u,
					Description: fmt.Sprintf("%s for %s", binding.kind, name),
					URL:         u,
				})
			}
		}
	}

	sortRecords(records)
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// normalizeHeader lowercases a header and collapses every non-alphanumeric
// run to a single space, so "HTTPS RPC", "https_rpc" and "Https-Rpc" all
// compare equal.
func normalizeHeader(h string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(h), " "))
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		norm := normalizeHeader(h)
		for _, alias := range aliases {
			if norm == normalizeHeader(alias) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func splitURLs(raw string) []string {
	var urls []string
	for _, part := range urlSplit.Split(strings.TrimSpace(raw), -1) {
		if part != "" {
			urls = append(urls, part)
		}
	}
	return urls
}
