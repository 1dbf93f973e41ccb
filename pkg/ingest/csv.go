// Package ingest reads historical production/consumption datasets into
// ordered EnergyRecord sequences. It is the data-ingestion boundary: the
// simulation core never touches files or wire formats.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// Column headers recognized in the dataset, lowercased. Produced and
// consumed are required; the grid columns are optional.
const (
	colTimestamp = "date/time"
	colProduced  = "energy produced (wh)"
	colConsumed  = "energy consumed (wh)"
	colExported  = "exported to grid (wh)"
	colImported  = "imported from grid (wh)"
)

// timestampLayouts are tried in order when parsing the Date/Time column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// ReadFile reads and validates the CSV dataset at path.
func ReadFile(path string) ([]types.EnergyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses an EnergyRecord sequence from CSV. The run fails fast on
// malformed rows or non-increasing timestamps; there is nothing useful the
// simulation can do with an unordered dataset.
func Read(r io.Reader) ([]types.EnergyRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colTimestamp, colProduced, colConsumed} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("dataset is missing required column %q", required)
		}
	}

	var records []types.EnergyRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(records) > 0 && !rec.Timestamp.After(records[len(records)-1].Timestamp) {
			return nil, fmt.Errorf("line %d: timestamp %s is not after previous record",
				line, rec.Timestamp.Format(time.RFC3339))
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, cols map[string]int) (types.EnergyRecord, error) {
	var rec types.EnergyRecord

	ts, err := parseTimestamp(field(row, cols, colTimestamp))
	if err != nil {
		return rec, err
	}
	rec.Timestamp = ts

	if rec.ProducedWH, err = parseWH(field(row, cols, colProduced), "produced"); err != nil {
		return rec, err
	}
	if rec.ConsumedWH, err = parseWH(field(row, cols, colConsumed), "consumed"); err != nil {
		return rec, err
	}

	// Optional grid columns: absent or empty means unknown, not zero.
	if v := field(row, cols, colExported); v != "" {
		wh, err := parseWH(v, "exported")
		if err != nil {
			return rec, err
		}
		rec.ExportedWH = &wh
	}
	if v := field(row, cols, colImported); v != "" {
		wh, err := parseWH(v, "imported")
		if err != nil {
			return rec, err
		}
		rec.ImportedWH = &wh
	}
	return rec, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseWH(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s energy %q", name, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative %s energy %q", name, s)
	}
	return v, nil
}
