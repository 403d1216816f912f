package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/mocks"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/parsers"
)

func newImportFixture() (*ImportService, *mocks.GraphStore, *recordingQueue) {
	store := mocks.NewGraphStore()
	queue := &recordingQueue{}
	logger := testLogger()
	memorials := NewMemorialService(store, queue, nil, logger)
	return NewImportService(store, memorials, logger), store, queue
}

func TestImportService_Import(t *testing.T) {
	svc, store, queue := newImportFixture()
	ctx := context.Background()

	rows := []parsers.RawMemorial{
		{FullName: "John Smith", DateOfBirth: "1950-01-01", Country: "US", Approved: true, LineNum: 2},
		{FullName: "", LineNum: 3},
		{FullName: "Bad Dates", DateOfBirth: "2000-01-01", DateOfDeath: "1990-01-01", LineNum: 4},
		{FullName: "Jon Smith", DateOfBirth: "1951-06-15", Country: "US", LineNum: 5},
		{FullName: "john smith", DateOfBirth: "1950-01-01", LineNum: 6},
		{FullName: "Odd Date", DateOfBirth: "June 1951", LineNum: 7},
	}

	result, err := svc.Import(ctx, rows, "u1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped, "same name and birth date within one file")
	require.Len(t, result.Errors, 3)

	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Equal(t, "full_name", result.Errors[0].Field)
	assert.Equal(t, 4, result.Errors[1].Line)
	assert.Equal(t, "date", result.Errors[1].Field)
	assert.Equal(t, 7, result.Errors[2].Line)
	assert.Contains(t, result.Errors[2].Error(), "line 7:")

	ms, err := store.ListMemorials(ctx, ports.MemorialFilter{CreatedBy: "u1"})
	require.NoError(t, err)
	assert.Len(t, ms, 2)
	assert.Len(t, queue.ids, 1, "only the approved row is matched")
}

func TestImportService_Import_SkipsExisting(t *testing.T) {
	svc, _, _ := newImportFixture()
	ctx := context.Background()
	rows := []parsers.RawMemorial{{FullName: "Ann Lee", DateOfBirth: "1930-02-02"}}

	first, err := svc.Import(ctx, rows, "u1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := svc.Import(ctx, rows, "u1", ImportOptions{})
	require.NoError(t, err)
	assert.Zero(t, second.Imported)
	assert.Equal(t, 1, second.Skipped)

	other, err := svc.Import(ctx, rows, "u2", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, other.Imported, "another creator may hold the same person")
}

func TestImportService_Import_DryRun(t *testing.T) {
	svc, store, _ := newImportFixture()
	rows := []parsers.RawMemorial{{FullName: "Ann Lee"}, {FullName: "Bo Lee"}}

	result, err := svc.Import(context.Background(), rows, "u1", ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	count, err := store.CountMemorials(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportService_Import_ApproveAll(t *testing.T) {
	svc, store, queue := newImportFixture()
	rows := []parsers.RawMemorial{{FullName: "Ann Lee"}, {FullName: "Bo Lee"}}

	_, err := svc.Import(context.Background(), rows, "u1", ImportOptions{ApproveAll: true})
	require.NoError(t, err)

	approved, err := store.ListMemorials(context.Background(), ports.MemorialFilter{ApprovedOnly: true})
	require.NoError(t, err)
	assert.Len(t, approved, 2)
	assert.Len(t, queue.ids, 2)
}

func TestImportService_Import_RequiresCreator(t *testing.T) {
	svc, _, _ := newImportFixture()
	_, err := svc.Import(context.Background(), []parsers.RawMemorial{{FullName: "X"}}, " ", ImportOptions{})
	require.Error(t, err)
}
