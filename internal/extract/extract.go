// Package extract searches parsed JSON trees for target values, by exact
// key name or by value shape. Both modes share a single traversal and are
// pure functions of the input tree.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// hashPattern is the value-shape predicate used by pattern mode: "0x"
// followed by exactly 64 hexadecimal characters.
var hashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Match is one discovered value.
type Match struct {
	// Path is the structural path from the root: object keys joined by
	// dots, array indexes rendered as name[index].
	Path string
	// Key is the matched target key name; set in key mode only.
	Key string
	// Value is the matched string value.
	Value string
}

// Parse decodes raw text into a JSON tree. A parse failure is a hard error
// for the blob.
func Parse(raw string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return tree, nil
}

// Keys walks the tree and records every direct string child of an object
// whose key equals one of the targets. Recursion continues into all
// children regardless of match, since the same target key may recur at
// different depths. Matches are returned in deterministic walk order
// (object keys sorted, array elements in index order).
func Keys(tree any, targets []string) []Match {
	targetSet := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		targetSet[t] = struct{}{}
	}
	var matches []Match
	walk(tree, "", func(path string, node any) {
		obj, ok := node.(map[string]any)
		if !ok {
			return
		}
		for _, key := range sortedKeys(obj) {
			if _, want := targetSet[key]; !want {
				continue
			}
			if s, isString := obj[key].(string); isString {
				matches = append(matches, Match{
					Path:  childPath(path, key),
					Key:   key,
					Value: s,
				})
			}
		}
	})
	return matches
}

// Pattern walks the tree and records every string leaf matching the
// hash-shape predicate under its structural path, rooted at prefix.
func Pattern(tree any, prefix string) []Match {
	var matches []Match
	walk(tree, prefix, func(path string, node any) {
		s, ok := node.(string)
		if !ok || !hashPattern.MatchString(s) {
			return
		}
		matches = append(matches, Match{Path: path, Value: s})
	})
	return matches
}

// MatchesHash reports whether s has the hash value shape.
func MatchesHash(s string) bool {
	return hashPattern.MatchString(s)
}

// walk visits every node depth-first, building structural paths as it
// descends. Object keys are visited in sorted order so results are
// deterministic for any input.
func walk(node any, path string, visit func(path string, node any)) {
	visit(path, node)
	switch n := node.(type) {
	case map[string]any:
		for _, key := range sortedKeys(n) {
			walk(n[key], childPath(path, key), visit)
		}
	case []any:
		for i, elem := range n {
			walk(elem, fmt.Sprintf("%s[%d]", path, i), visit)
		}
	}
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
