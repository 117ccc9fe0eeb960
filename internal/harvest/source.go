package harvest

import "context"

// Source is the capability interface every concrete upstream implements.
// The dispatcher and aggregator are written once against it.
type Source interface {
	// Describe returns the source descriptor recorded in the output
	// envelope, e.g. "matter-labs/zksync-era/prover/data/historical_data/main".
	Describe() string

	// Enumerate returns the full, filtered, deduplicated candidate list in
	// enumeration order. It returns an error wrapping ErrNoCandidates when
	// filtering leaves nothing to harvest.
	Enumerate(ctx context.Context) ([]Candidate, error)

	// Harvest fetches and extracts one candidate's entries. Absence is
	// reported as ErrAbsent, transport failures as *FetchError, and decode
	// failures as *ExtractError; the dispatcher classifies the candidate's
	// terminal status from the error value.
	Harvest(ctx context.Context, c Candidate) (Entries, error)
}
