package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/mocks"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/domain/services"
)

func newImportHandler(t *testing.T) (*ImportHandler, *mocks.GraphStore) {
	t.Helper()
	store := mocks.NewGraphStore()
	memorials := services.NewMemorialService(store, nil, nil, testLogger())
	return NewImportHandler(services.NewImportService(store, memorials, testLogger())), store
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportHandler_Handle_JSONFile(t *testing.T) {
	handler, store := newImportHandler(t)
	path := writeFile(t, "family.json",
		`[{"full_name": "John Smith", "date_of_birth": "1950-01-01", "country": "US", "approved": true}]`)

	result, err := handler.Handle(context.Background(), path, "u1", ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	all, err := store.ListMemorials(context.Background(), ports.MemorialFilter{CreatedBy: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Approved)
}

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	handler, _ := newImportHandler(t)
	path := writeFile(t, "family.csv",
		"full_name,date_of_birth,country\nJane Smith,1952-04-02,US\n,1960-01-01,US\n")

	result, err := handler.Handle(context.Background(), path, "u1", ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Line)
}

func TestImportHandler_Handle_ExplicitFormat(t *testing.T) {
	handler, _ := newImportHandler(t)
	path := writeFile(t, "family.txt", `[{"full_name": "Ann Lee"}]`)

	_, err := handler.Handle(context.Background(), path, "u1", ImportOptions{Format: "auto"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	result, err := handler.Handle(context.Background(), path, "u1", ImportOptions{Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportHandler_Handle_DryRun(t *testing.T) {
	handler, store := newImportHandler(t)
	path := writeFile(t, "family.json", `[{"full_name": "Ann Lee"}, {"full_name": "Bo Lee"}]`)

	result, err := handler.Handle(context.Background(), path, "u1", ImportOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	count, err := store.CountMemorials(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	handler, _ := newImportHandler(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "u1", ImportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening file")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{not json`)
		_, err := handler.Handle(context.Background(), path, "u1", ImportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing file")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "empty.json", `[]`)
		result, err := handler.Handle(context.Background(), path, "u1", ImportOptions{})
		require.NoError(t, err)
		assert.Zero(t, result.Imported)
	})
}

func TestImportHandler_HandleReader(t *testing.T) {
	handler, _ := newImportHandler(t)

	result, err := handler.HandleReader(context.Background(),
		strings.NewReader("full_name,approved\nAnn Lee,false\n"), "u1",
		ImportOptions{Format: "csv", ApproveAll: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	_, err = handler.HandleReader(context.Background(), strings.NewReader(""), "u1", ImportOptions{Format: "xml"})
	require.Error(t, err)
}
