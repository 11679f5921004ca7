// Package feed supplies CSV-backed data rows to the runner, cycling through
// records round-robin and binding each selected row into a request's local
// script scope before before-scripts run.
package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/surgeproj/surge/pkg/script"
)

// Feeder yields the next data row as a map of column name to raw string
// value.
type Feeder interface {
	Next() map[string]string
}

// CSVFeeder reads a CSV file into memory once and cycles through its rows.
type CSVFeeder struct {
	name    string
	idx     uint64
	records []map[string]string
}

// NewCSVFeeder loads path (expects a header row) into a CSVFeeder bound to
// name, the variable name requests will reference to pull a column.
func NewCSVFeeder(name, path string) (*CSVFeeder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv data: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv file must have a header and at least one row")
	}

	headers := rows[0]
	for _, h := range headers {
		if h == "" {
			return nil, fmt.Errorf("csv header contains empty field")
		}
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		for i, val := range row {
			if i < len(headers) {
				record[headers[i]] = val
			}
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file contains no data rows")
	}

	return &CSVFeeder{name: name, records: records}, nil
}

// Next returns the next record, wrapping back to the start.
func (f *CSVFeeder) Next() map[string]string {
	i := atomic.AddUint64(&f.idx, 1) - 1
	return f.records[i%uint64(len(f.records))]
}

// BindLocal projects the next row from every feeder into ctx, one map
// variable per feeder named after its data source.
func BindLocal(ctx *script.Context, feeders map[string]Feeder) {
	for name, feeder := range feeders {
		row := feeder.Next()
		m := make(map[string]script.Value, len(row))
		for k, v := range row {
			m[k] = script.String(v)
		}
		ctx.SetLocal(name, script.Map(m))
	}
}
