package webdata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoInputs is returned when a merge finds no readable index files.
var ErrNoInputs = fmt.Errorf("no valid index files found")

// mergeDocument is the tolerant shape used when reading index files: a
// malformed timestamp degrades to the zero time instead of rejecting the
// whole file.
type mergeDocument struct {
	Source    string               `json:"source"`
	FetchedAt string               `json:"fetched_at"`
	Items     map[string]mergeItem `json:"items"`
}

type mergeItem struct {
	Value       string `json:"value"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type mergeCandidate struct {
	record    Record
	fetchedAt time.Time
}

// MergeIndexes loads every *.json index file under dir (walking
// subdirectories when recursive is set) and merges their items into one
// record array. When two files define the same key, the record with the
// newer fetched_at wins; equal timestamps prefer the record carrying more
// of description and url; at a full tie the earlier file keeps the key.
// Unreadable or malformed files are skipped with a warning. Zero valid
// inputs is an error.
func MergeIndexes(dir string, recursive bool, logger *zap.Logger) ([]Record, error) {
	files, err := listIndexFiles(dir, recursive)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]mergeCandidate)
	valid := 0

	for _, path := range files {
		doc, err := loadDocument(path)
		if err != nil {
			logger.Warn("Skipping index file", zap.String("path", path), zap.Error(err))
			continue
		}
		valid++

		fetchedAt := parseFetchedAt(doc.FetchedAt)
		for key, item := range doc.Items {
			if item.Value == "" {
				continue
			}
			candidate := mergeCandidate{
				record: Record{
					Key:         key,
					Value:       item.Value,
					Description: item.Description,
					URL:         item.URL,
				},
				fetchedAt: fetchedAt,
			}

			prev, ok := merged[key]
			switch {
			case !ok:
				merged[key] = candidate
			case fetchedAt.After(prev.fetchedAt):
				merged[key] = candidate
			case fetchedAt.Equal(prev.fetchedAt) && presenceScore(candidate.record) > presenceScore(prev.record):
				merged[key] = candidate
			}
		}
	}

	if valid == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, dir)
	}

	records := make([]Record, 0, len(merged))
	for _, candidate := range merged {
		records = append(records, candidate.record)
	}
	sortRecords(records)
	return records, nil
}

func listIndexFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", dir)
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk input directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
				files = append(files, filepath.Join(dir, entry.Name()))
			}
		}
	}
	// WalkDir and ReadDir are already lexical, but the contract is worth
	// pinning for the tie-break rule.
	sort.Strings(files)
	return files, nil
}

func loadDocument(path string) (mergeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mergeDocument{}, err
	}
	var doc mergeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return mergeDocument{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if doc.Items == nil {
		return mergeDocument{}, fmt.Errorf("%s: missing items object", filepath.Base(path))
	}
	return doc, nil
}

// parseFetchedAt treats any unparseable timestamp as the epoch so the file
// still contributes, it just loses every collision.
func parseFetchedAt(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func presenceScore(r Record) int {
	score := 0
	if r.Description != "" {
		score++
	}
	if r.URL != "" {
		score++
	}
	return score
}
