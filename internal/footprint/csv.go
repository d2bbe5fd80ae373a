package footprint

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cialabs/carbonrisk/internal/emission"
)

// ExpectedFormat describes the CSV contract, returned alongside header errors.
const ExpectedFormat = "Headers: category,amount,unit,date (required), description (optional). " +
	"Example row: transport,100,km,2024-01-15,Daily commute"

// requiredColumns must all be present in the header row, in any order and
// any letter case.
var requiredColumns = []string{"category", "amount", "unit", "date"}

// Row is one raw data row from an uploaded CSV. Fields stay strings until
// validation; Extra holds any columns beyond the known ones.
type Row struct {
	Category    string
	Amount      string
	Unit        string
	Date        string
	Description string
	Extra       map[string]string
}

// ParseCSV reads an uploaded file into raw rows. It fails only on structural
// problems: unreadable CSV, an empty file, or missing required headers.
// Per-row data problems are left for ValidateRows.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// column name -> index, case-insensitive
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, want := range requiredColumns {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	known := map[string]bool{
		"category": true, "amount": true, "unit": true, "date": true, "description": true,
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{
			Category:    field("category"),
			Amount:      field("amount"),
			Unit:        field("unit"),
			Date:        field("date"),
			Description: field("description"),
		}
		for name, i := range cols {
			if known[name] || i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				if row.Extra == nil {
					row.Extra = map[string]string{}
				}
				row.Extra[name] = v
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ValidateRows checks each raw row and converts the valid ones into
// activities with computed CO2. Rows are independent: a bad row produces one
// "Row N" error per failing field (1-based over data rows) and the rest
// still import.
func ValidateRows(rows []Row) ([]emission.Activity, []string) {
	var (
		activities []emission.Activity
		errs       []string
	)

	for i, row := range rows {
		n := i + 1
		bad := len(errs)

		if row.Category == "" {
			errs = append(errs, fmt.Sprintf("Row %d: category is required", n))
		}
		amount, err := strconv.ParseFloat(row.Amount, 64)
		if err != nil || amount <= 0 {
			errs = append(errs, fmt.Sprintf("Row %d: amount must be a positive number", n))
		}
		if row.Unit == "" {
			errs = append(errs, fmt.Sprintf("Row %d: unit is required", n))
		}
		date, err := parseDate(row.Date)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Row %d: invalid date %q (expected YYYY-MM-DD)", n, row.Date))
		}

		// every failing field gets its own entry before the row is skipped
		if len(errs) > bad {
			continue
		}
		activities = append(activities, emission.ParseRow(row.Category, amount, row.Unit, row.Description, date, row.Extra))
	}

	return activities, errs
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
