package harvest

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned by Enumerate when, after filtering, zero
// candidates remain. An empty but otherwise valid listing page is not an
// error; only an empty filtered final result is.
var ErrNoCandidates = errors.New("no candidates after filtering")

// ErrAbsent reports that the resource legitimately does not exist for a
// candidate. It flows like sql.ErrNoRows: the dispatcher converts it to the
// non-error Absent status.
var ErrAbsent = errors.New("resource absent")

// FetchError wraps a transport or status failure while retrieving a
// candidate's content.
type FetchError struct {
	CandidateID string
	Op          string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.CandidateID, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractError wraps a decode failure for a candidate's content.
type ExtractError struct {
	CandidateID string
	Detail      string
	Err         error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.CandidateID, e.Detail, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
