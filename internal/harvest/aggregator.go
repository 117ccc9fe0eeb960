package harvest

import (
	"sort"

	"go.uber.org/zap"
)

// Aggregator merges per-candidate contributions into one global map with a
// deterministic collision rule: on a shared key, the contribution from the
// candidate with the higher enumeration ordinal wins, regardless of the
// order completions arrive in. Completion order can never affect output.
type Aggregator struct {
	logger *zap.Logger
	merged map[string]mergedEntry
	stats  RunStats
}

type mergedEntry struct {
	entry   Entry
	ordinal int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		logger: logger,
		merged: make(map[string]mergedEntry),
	}
}

// Add merges one terminated candidate's result. It is not safe for
// concurrent use; contributions funnel through a single merging goroutine.
func (a *Aggregator) Add(res CandidateResult) {
	a.stats.Candidates++
	switch res.Status {
	case StatusExtracted:
		a.stats.Extracted++
	case StatusAbsent:
		a.stats.Absent++
	default:
		a.stats.Failed++
	}

	for key, entry := range res.Entries {
		existing, ok := a.merged[key]
		if ok {
			a.logger.Warn("key collision",
				zap.String("key", key),
				zap.Int("kept_ordinal", maxInt(existing.ordinal, res.Candidate.Ordinal)),
				zap.String("candidate", res.Candidate.ID),
			)
			if existing.ordinal > res.Candidate.Ordinal {
				continue
			}
		}
		a.merged[key] = mergedEntry{entry: entry, ordinal: res.Candidate.Ordinal}
	}
}

// Stats returns the per-status candidate counts accumulated so far.
func (a *Aggregator) Stats() RunStats {
	stats := a.stats
	stats.Entries = len(a.merged)
	return stats
}

// Entries returns the merged map.
func (a *Aggregator) Entries() Entries {
	out := make(Entries, len(a.merged))
	for key, m := range a.merged {
		out[key] = m.entry
	}
	return out
}

// SortedKeys returns the merged keys in ascending lexicographic order.
func (a *Aggregator) SortedKeys() []string {
	keys := make([]string, 0, len(a.merged))
	for key := range a.merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
