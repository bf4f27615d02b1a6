// Package table provides the rectangular in-memory table that survey records
// and Darwin Core output rows flow through. Tables are immutable by
// convention: transformations return a new table instead of mutating their
// input.
package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a single table cell. A missing value is explicit and distinct from
// the empty string; it renders as an empty field only at serialization time.
type Value struct {
	raw     string
	missing bool
}

// Missing returns the explicit no-value marker.
func Missing() Value { return Value{missing: true} }

// String wraps a string cell.
func String(s string) Value { return Value{raw: s} }

// Int wraps an integer cell using its canonical decimal rendering.
func Int(i int64) Value { return Value{raw: strconv.FormatInt(i, 10)} }

// Float wraps a floating point cell using the shortest exact rendering.
func Float(f float64) Value { return Value{raw: strconv.FormatFloat(f, 'g', -1, 64)} }

// IsMissing reports whether the cell carries no value.
func (v Value) IsMissing() bool { return v.missing }

// String returns the cell's rendering; missing values render empty.
func (v Value) String() string {
	if v.missing {
		return ""
	}
	return v.raw
}

// Float parses the cell as a float64.
func (v Value) Float() (float64, error) {
	if v.missing {
		return 0, fmt.Errorf("value is missing")
	}
	return strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
}

// Int parses the cell as an int64. Float-shaped inputs with an integral value
// (for example "42.0", common in upstream CSV exports) are accepted.
func (v Value) Int() (int64, error) {
	if v.missing {
		return 0, fmt.Errorf("value is missing")
	}
	s := strings.TrimSpace(v.raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", v.raw, err)
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("value %q is not integral", v.raw)
	}
	return int64(f), nil
}

// Table is a rectangular table with an ordered column list.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New constructs an empty table with the given column order.
func New(columns ...string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// AppendRow adds a row from a column→value map; columns absent from the map
// receive the missing marker, unknown keys are rejected.
func (t *Table) AppendRow(cells map[string]Value) error {
	for name := range cells {
		if _, ok := t.index[name]; !ok {
			return fmt.Errorf("unknown column %q", name)
		}
	}
	row := make([]Value, len(t.columns))
	for i, name := range t.columns {
		if v, ok := cells[name]; ok {
			row[i] = v
		} else {
			row[i] = Missing()
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

// Cell returns the value at (row, column); out-of-range access yields the
// missing marker.
func (t *Table) Cell(row int, column string) Value {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Missing()
	}
	return t.rows[row][i]
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for r := range t.rows {
		out[r] = t.rows[r][i]
	}
	return out, true
}

// WithColumn returns a new table with the named column set to the given
// values, appending the column when absent. The value slice length must match
// the row count.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	columns := t.columns
	if !t.HasColumn(name) {
		columns = append(append([]string(nil), t.columns...), name)
	}
	out := New(columns...)
	out.rows = make([][]Value, len(t.rows))
	for r := range t.rows {
		row := make([]Value, len(out.columns))
		copy(row, t.rows[r])
		row[out.index[name]] = values[r]
		out.rows[r] = row
	}
	return out, nil
}

// Concat returns a new table with a's rows followed by b's rows. Both tables
// must share a's column order; b may omit trailing information only by
// carrying missing values, never by dropping columns.
func Concat(a, b *Table) (*Table, error) {
	if len(a.columns) != len(b.columns) {
		return nil, fmt.Errorf("concat: column count mismatch (%d vs %d)", len(a.columns), len(b.columns))
	}
	for i, c := range a.columns {
		if b.columns[i] != c {
			return nil, fmt.Errorf("concat: column %d differs (%q vs %q)", i, c, b.columns[i])
		}
	}
	out := New(a.columns...)
	out.rows = make([][]Value, 0, len(a.rows)+len(b.rows))
	for _, r := range a.rows {
		out.rows = append(out.rows, append([]Value(nil), r...))
	}
	for _, r := range b.rows {
		out.rows = append(out.rows, append([]Value(nil), r...))
	}
	return out, nil
}

type tableJSON struct {
	Columns []string    `json:"columns"`
	Rows    [][]*string `json:"rows"`
}

// MarshalJSON encodes the table as {"columns":[...],"rows":[[...]]} with
// missing cells encoded as null. Used by the source cache and run log.
func (t *Table) MarshalJSON() ([]byte, error) {
	enc := tableJSON{Columns: t.columns, Rows: make([][]*string, len(t.rows))}
	if enc.Columns == nil {
		enc.Columns = []string{}
	}
	for r, row := range t.rows {
		cells := make([]*string, len(row))
		for i, v := range row {
			if !v.missing {
				s := v.raw
				cells[i] = &s
			}
		}
		enc.Rows[r] = cells
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes the encoding produced by MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var dec tableJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	nt := New(dec.Columns...)
	for r, cells := range dec.Rows {
		if len(cells) != len(dec.Columns) {
			return fmt.Errorf("row %d has %d cells for %d columns", r, len(cells), len(dec.Columns))
		}
		row := make([]Value, len(cells))
		for i, c := range cells {
			if c == nil {
				row[i] = Missing()
			} else {
				row[i] = String(*c)
			}
		}
		nt.rows = append(nt.rows, row)
	}
	*t = *nt
	return nil
}
