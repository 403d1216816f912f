package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses memorials from a JSON array.
type JSONParser struct{}

// Parse reads a JSON array of memorial objects.
func (p *JSONParser) Parse(r io.Reader) ([]RawMemorial, error) {
	var rows []RawMemorial
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Array index + 1 stands in for the line number.
	for i := range rows {
		rows[i].LineNum = i + 1
	}
	return rows, nil
}
