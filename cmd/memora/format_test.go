package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/infrastructure/config"
)

func TestLifespan(t *testing.T) {
	tests := []struct {
		birth, death int
		want         string
	}{
		{1950, 2020, "1950-2020"},
		{1950, 0, "b. 1950"},
		{0, 2020, "d. 2020"},
		{0, 0, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, lifespan(tc.birth, tc.death))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("table"))
	assert.NoError(t, validateFormat("json"))
	assert.Error(t, validateFormat("xml"))
}

func TestWriteTree(t *testing.T) {
	born := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	died := time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)
	root := entities.NewTreeNode(&entities.Memorial{ID: "john", FullName: "John Smith", DateOfBirth: &born, DateOfDeath: &died}, "")
	mary := entities.NewTreeNode(&entities.Memorial{ID: "mary", FullName: "Mary Smith"}, "Spouse")
	ann := entities.NewTreeNode(&entities.Memorial{ID: "ann", FullName: "Ann Smith"}, "Child")
	root.Children = append(root.Children, mary)
	mary.Children = append(mary.Children, ann)

	var buf bytes.Buffer
	writeTree(&buf, root)

	assert.Equal(t, "John Smith (1950-2020)\n  Mary Smith [Spouse]\n    Ann Smith [Child]\n", buf.String())
}

func TestWriteMemorialTable(t *testing.T) {
	born := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := writeMemorialTable(&buf, []*entities.Memorial{
		{ID: "m1", FullName: "John Smith", DateOfBirth: &born, Country: "US", Approved: true},
		{ID: "m2", FullName: "Jane Doe", Country: "CA"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "b. 1950")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, []string{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "debug", Format: "json"})
	logger.Debug("hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])

	buf.Reset()
	logger = newLogger(&buf, config.LogConfig{Level: "warn"})
	logger.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestAnniversaryFlagsToday(t *testing.T) {
	d, err := anniversaryFlags{date: "2024-12-31"}.today()
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = anniversaryFlags{date: "31/12/2024"}.today()
	assert.Error(t, err)
}
