// internal/app/system/csvutil/roster.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/academyhub/internal/app/system/inputval"
	"github.com/dalemusser/academyhub/internal/app/system/normalize"
)

// RosterRow is one student line: Full Name, Email, Matric Number.
type RosterRow struct {
	Line         int
	FullName     string
	Email        string
	MatricNumber string
}

// RowError explains why a line was rejected.
type RowError struct {
	Line   int    `json:"line"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// RosterResult holds the parsed rows and any per-line problems.
type RosterResult struct {
	Rows   []RosterRow
	Errors []RowError
}

// HasErrors reports whether any line was rejected.
func (r *RosterResult) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

// Summary describes the first max errors on one line each.
func (r *RosterResult) Summary(max int) string {
	if !r.HasErrors() {
		return ""
	}
	n := min(max, len(r.Errors))
	parts := make([]string, 0, n+1)
	for _, e := range r.Errors[:n] {
		parts = append(parts, fmt.Sprintf("line %d: %s", e.Line, e.Reason))
	}
	if rest := len(r.Errors) - n; rest > 0 {
		parts = append(parts, fmt.Sprintf("and %d more", rest))
	}
	return strings.Join(parts, "; ")
}

// Roster uploads are capped at MaxUploadSize bytes and MaxRows data rows.
const (
	MaxUploadSize = 5 << 20
	MaxRows       = 20000
)

// ParseOptions bounds a parse.
type ParseOptions struct {
	MaxRows int
}

// DefaultParseOptions uses MaxRows.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxRows: MaxRows}
}

// ErrTooManyRows is returned when the file has more data rows than allowed.
var ErrTooManyRows = errors.New("too many rows")

// ParseRoster reads a student roster. An optional header row whose first
// two cells are a name column and "email" is skipped, blank lines are
// ignored, and emails are lowercased. Every line is checked; problems are
// collected in Errors rather than stopping the parse. Only unreadable CSV
// or an oversized file returns an error.
func ParseRoster(r io.Reader, opts ParseOptions) (*RosterResult, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = MaxRows
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	res := &RosterResult{}
	seen := make(map[string]int)
	first := true

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		row := RosterRow{Line: line, FullName: cell(rec, 0), Email: cell(rec, 1), MatricNumber: cell(rec, 2)}
		if row.FullName == "" && row.Email == "" && row.MatricNumber == "" {
			continue
		}
		if len(res.Rows)+len(res.Errors) >= opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}

		row.FullName = normalize.Name(row.FullName)
		row.Email = normalize.Email(row.Email)
		row.MatricNumber = normalize.MatricNumber(row.MatricNumber)

		switch {
		case row.FullName == "":
			res.Errors = append(res.Errors, RowError{Line: line, Email: row.Email, Reason: "missing full name"})
		case row.Email == "":
			res.Errors = append(res.Errors, RowError{Line: line, Reason: "missing email"})
		case !inputval.IsValidEmail(row.Email):
			res.Errors = append(res.Errors, RowError{Line: line, Email: row.Email, Reason: "invalid email"})
		case seen[row.Email] != 0:
			res.Errors = append(res.Errors, RowError{
				Line:   line,
				Email:  row.Email,
				Reason: fmt.Sprintf("email repeats line %d", seen[row.Email]),
			})
		default:
			seen[row.Email] = line
			res.Rows = append(res.Rows, row)
		}
	}
	return res, nil
}

func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	name := strings.ToLower(cell(rec, 0))
	return (name == "full name" || name == "name") && strings.EqualFold(cell(rec, 1), "email")
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
