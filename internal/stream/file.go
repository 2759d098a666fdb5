package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sawpanic/tickgate/internal/tick"
)

// Keys used for lines that could not be decoded. The schema rule rejects
// such records, so they reach the dead-letter queue instead of vanishing.
const (
	FieldUndecoded   = "_raw"
	FieldDecodeError = "_error"
)

const maxLineBytes = 1 << 20

// JSONLSource reads one JSON object per line
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONL creates a source over r
func NewJSONL(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &JSONLSource{scanner: scanner}
}

// Next decodes the next non-blank line. Numbers are kept as json.Number so
// prices never pass through float64.
func (s *JSONLSource) Next(ctx context.Context) (tick.Raw, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read line %d: %w", s.line+1, err)
			}
			return nil, io.EOF
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()

		var raw tick.Raw
		if err := dec.Decode(&raw); err != nil || raw == nil {
			msg := "not a JSON object"
			if err != nil {
				msg = err.Error()
			}
			return tick.Raw{
				FieldUndecoded:   string(line),
				FieldDecodeError: fmt.Sprintf("line %d: %s", s.line, msg),
			}, nil
		}
		return raw, nil
	}
}

// CSVSource reads a header row followed by one record per row. All values
// stay strings; empty cells are treated as missing.
type CSVSource struct {
	reader *csv.Reader
	header []string
	row    int
}

// NewCSV creates a source over r
func NewCSV(r io.Reader) *CSVSource {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return &CSVSource{reader: reader}
}

// Next returns the next row as a raw record
func (s *CSVSource) Next(ctx context.Context) (tick.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.header == nil {
		header, err := s.reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		for i := range header {
			header[i] = strings.ToLower(strings.TrimSpace(header[i]))
		}
		s.header = header
	}

	row, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read CSV row %d: %w", s.row+1, err)
	}
	s.row++

	raw := make(tick.Raw, len(s.header))
	for i, name := range s.header {
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			raw[name] = row[i]
		}
	}
	return raw, nil
}
