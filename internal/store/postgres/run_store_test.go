package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zksync-wtf/harvester/internal/store"
)

func sampleRecord() store.RunRecord {
	started := time.Unix(1750000000, 0).UTC()
	return store.RunRecord{
		ID:         "run-uuid",
		Source:     "owner/repo/path",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		Status:     "succeeded",
		Candidates: 10,
		Extracted:  8,
		Absent:     1,
		Failed:     1,
		Entries:    16,
		OutputURI:  "file:///tmp/index.json",
	}
}

func TestRecordRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	runStore, err := NewRunStoreWithPool(mock, "harvest_runs")
	require.NoError(t, err)

	rec := sampleRecord()
	mock.ExpectExec("INSERT INTO harvest_runs").
		WithArgs(
			rec.ID,
			rec.Source,
			rec.StartedAt,
			rec.FinishedAt,
			rec.Status,
			rec.Candidates,
			rec.Extracted,
			rec.Absent,
			rec.Failed,
			rec.Entries,
			rec.OutputURI,
			rec.Error,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, runStore.RecordRun(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunPropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	runStore, err := NewRunStoreWithPool(mock, "harvest_runs")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO harvest_runs").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection lost"))

	err = runStore.RecordRun(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run record")
}

func TestRecordRunRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	runStore, err := NewRunStoreWithPool(mock, "")
	require.NoError(t, err)

	rec := sampleRecord()
	rec.ID = ""
	assert.Error(t, runStore.RecordRun(context.Background(), rec))
}

func TestNewRunStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRunStoreWithPool(mock, "runs; DROP TABLE runs")
	assert.Error(t, err)

	_, err = NewRunStoreWithPool(nil, "harvest_runs")
	assert.Error(t, err)
}

func TestNewRunStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewRunStore(context.Background(), Config{})
	assert.Error(t, err)
}
