package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
)

// LoadCSV reads a booking export from disk.
func LoadCSV(path string) (*RawFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("training data not found at %s: %w", path, err)
		}
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses a headered CSV stream. Short or long rows are rejected.
func ReadCSV(r io.Reader) (*RawFrame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperr.New(apperr.KindMissingColumn, "empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	raw := NewRawFrame(header)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		cells := make([]Cell, len(rec))
		for i, field := range rec {
			cells[i] = ParseCell(field)
		}
		if err := raw.Append(cells...); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
	}
	return raw, nil
}
