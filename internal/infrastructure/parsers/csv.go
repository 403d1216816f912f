package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses memorials from CSV with a header row.
// Required column: full_name. Optional: date_of_birth, date_of_death,
// country, region, biography, image_ref, approved.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed memorials.
func (p *CSVParser) Parse(r io.Reader) ([]RawMemorial, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}
	return p.readRecords(reader, colIndex)
}

func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIndex["full_name"]; !ok {
		return nil, errors.New("missing required column: full_name")
	}
	return colIndex, nil
}

func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawMemorial, error) {
	rows := []RawMemorial{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		row, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawMemorial, error) {
	row := RawMemorial{
		FullName:    getColumn(record, colIndex, "full_name"),
		DateOfBirth: getColumn(record, colIndex, "date_of_birth"),
		DateOfDeath: getColumn(record, colIndex, "date_of_death"),
		Country:     getColumn(record, colIndex, "country"),
		Region:      getColumn(record, colIndex, "region"),
		Biography:   getColumn(record, colIndex, "biography"),
		ImageRef:    getColumn(record, colIndex, "image_ref"),
		LineNum:     lineNum,
	}

	if s := getColumn(record, colIndex, "approved"); s != "" {
		approved, err := strconv.ParseBool(s)
		if err != nil {
			return RawMemorial{}, fmt.Errorf("line %d: invalid approved value %q: %w", lineNum, s, err)
		}
		row.Approved = approved
	}
	return row, nil
}

func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
