package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

// fakeBatchResults replays one command tag or error per queued query
type fakeBatchResults struct {
	tags   []pgconn.CommandTag
	errs   []error
	next   int
	closed bool
}

func (f *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	i := f.next
	f.next++
	if i < len(f.errs) && f.errs[i] != nil {
		return pgconn.CommandTag{}, f.errs[i]
	}
	return f.tags[i], nil
}

func (f *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (f *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (f *fakeBatchResults) Close() error {
	f.closed = true
	return nil
}

type fakeDB struct {
	batch   *pgx.Batch
	results *fakeBatchResults
	execSQL []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batch = b
	return f.results
}

func link(s string) *string { return &s }

func TestUpsertSkipsUnlinkedAndCountsInserted(t *testing.T) {
	db := &fakeDB{results: &fakeBatchResults{tags: []pgconn.CommandTag{
		pgconn.NewCommandTag("INSERT 0 1"),
		pgconn.NewCommandTag("INSERT 0 0"),
	}}}
	repo := NewVacancyRepository(db, zap.NewNop())

	n, err := repo.Upsert(context.Background(), "user-1", []domain.Vacancy{
		{JobBoard: domain.SourceHH, URL: link("https://hh.ru/vacancy/1")},
		{JobBoard: domain.SourceHabr},
		{JobBoard: domain.SourceGeekJob, URL: link("https://geekjob.ru/vacancy/2")},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, db.results.closed)
	require.Equal(t, 2, db.batch.Len())

	args := db.batch.QueuedQueries[1].Arguments
	assert.Equal(t, "user-1", args[0])
	assert.Equal(t, "https://geekjob.ru/vacancy/2", args[1])
	assert.Equal(t, "geekjob", args[2])
	assert.Contains(t, db.batch.QueuedQueries[0].SQL, "ON CONFLICT (user_id, url) DO NOTHING")
}

func TestUpsertNothingToStore(t *testing.T) {
	db := &fakeDB{}
	n, err := NewVacancyRepository(db, zap.NewNop()).Upsert(context.Background(), "u", []domain.Vacancy{{}})

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, db.batch)
}

func TestUpsertWrapsPersistenceError(t *testing.T) {
	db := &fakeDB{results: &fakeBatchResults{
		tags: []pgconn.CommandTag{pgconn.NewCommandTag("INSERT 0 1"), {}},
		errs: []error{nil, errors.New("connection reset")},
	}}

	n, err := NewVacancyRepository(db, zap.NewNop()).Upsert(context.Background(), "u", []domain.Vacancy{
		{URL: link("https://a")},
		{URL: link("https://b")},
	})

	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, int64(1), n)
	assert.True(t, db.results.closed)
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewVacancyRepository(db, zap.NewNop()).EnsureSchema(context.Background()))
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "UNIQUE (user_id, url)")
}
