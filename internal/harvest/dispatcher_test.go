package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSource returns canned results per candidate ID.
type fakeSource struct {
	descriptor string
	candidates []Candidate
	enumErr    error
	harvest    func(ctx context.Context, c Candidate) (Entries, error)

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeSource) Describe() string {
	if f.descriptor == "" {
		return "fake"
	}
	return f.descriptor
}

func (f *fakeSource) Enumerate(context.Context) ([]Candidate, error) {
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	return f.candidates, nil
}

func (f *fakeSource) Harvest(ctx context.Context, c Candidate) (Entries, error) {
	cur := f.inFlight.Add(1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)
	if f.harvest != nil {
		return f.harvest(ctx, c)
	}
	return nil, nil
}

func makeCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{ID: fmt.Sprintf("c-%02d", i), Ordinal: i}
	}
	return out
}

func entryFor(key string) Entries {
	return Entries{key: Entry{Key: key, Value: "0x1"}}
}

func TestDispatcherProcessesAllCandidates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		harvest: func(_ context.Context, c Candidate) (Entries, error) {
			return entryFor(c.ID), nil
		},
	}
	d := NewDispatcher(source, 4, zap.NewNop())

	var mu sync.Mutex
	results := make(map[string]CandidateResult)
	d.Run(context.Background(), makeCandidates(10), func(res CandidateResult) {
		mu.Lock()
		defer mu.Unlock()
		results[res.Candidate.ID] = res
	})

	require.Len(t, results, 10)
	for id, res := range results {
		assert.Equal(t, StatusExtracted, res.Status)
		assert.Contains(t, res.Entries, id)
	}
}

func TestDispatcherHonorsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	const limit = 3
	source := &fakeSource{
		harvest: func(_ context.Context, c Candidate) (Entries, error) {
			time.Sleep(10 * time.Millisecond)
			return entryFor(c.ID), nil
		},
	}
	d := NewDispatcher(source, limit, zap.NewNop())

	d.Run(context.Background(), makeCandidates(20), nil)

	assert.LessOrEqual(t, source.maxInFlight.Load(), int64(limit))
	assert.Positive(t, source.maxInFlight.Load())
}

// One failing candidate must not disturb its siblings' results.
func TestDispatcherIsolatesFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	source := &fakeSource{
		harvest: func(_ context.Context, c Candidate) (Entries, error) {
			switch c.ID {
			case "c-03":
				return nil, &FetchError{CandidateID: c.ID, Op: "fetch", Err: boom}
			case "c-05":
				return nil, ErrAbsent
			case "c-07":
				return nil, &ExtractError{CandidateID: c.ID, Detail: "bad json", Err: boom}
			default:
				return entryFor(c.ID), nil
			}
		},
	}
	d := NewDispatcher(source, 4, zap.NewNop())

	var mu sync.Mutex
	byStatus := make(map[Status][]string)
	d.Run(context.Background(), makeCandidates(10), func(res CandidateResult) {
		mu.Lock()
		defer mu.Unlock()
		byStatus[res.Status] = append(byStatus[res.Status], res.Candidate.ID)
	})

	assert.Len(t, byStatus[StatusExtracted], 7)
	assert.Equal(t, []string{"c-03"}, byStatus[StatusFetchFailed])
	assert.Equal(t, []string{"c-05"}, byStatus[StatusAbsent])
	assert.Equal(t, []string{"c-07"}, byStatus[StatusExtractFailed])
}

func TestDispatcherUnclassifiedErrorIsFetchFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		harvest: func(context.Context, Candidate) (Entries, error) {
			return nil, errors.New("mystery")
		},
	}
	d := NewDispatcher(source, 1, zap.NewNop())

	var got CandidateResult
	d.Run(context.Background(), makeCandidates(1), func(res CandidateResult) {
		got = res
	})
	assert.Equal(t, StatusFetchFailed, got.Status)
	assert.Nil(t, got.Entries)
}

func TestDispatcherCanceledRunTerminatesEveryCandidate(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	source := &fakeSource{
		harvest: func(ctx context.Context, c Candidate) (Entries, error) {
			if c.Ordinal == 0 {
				cancel()
			}
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	d := NewDispatcher(source, 1, zap.NewNop())

	var count int
	d.Run(ctx, makeCandidates(5), func(res CandidateResult) {
		count++
		assert.Equal(t, StatusFetchFailed, res.Status)
	})
	assert.Equal(t, 5, count)
}

func TestDispatcherEmptyCandidateList(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&fakeSource{}, 4, zap.NewNop())
	d.Run(context.Background(), nil, func(CandidateResult) {
		t.Fatal("observe must not be called")
	})
}
