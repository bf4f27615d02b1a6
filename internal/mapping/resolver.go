// Package mapping resolves declarative exact mappings against a source table,
// producing a renamed, type-coerced table. Resolution is always best-effort:
// unresolvable fields are skipped with a diagnostic, failed conversions yield
// the missing marker, and only an absent target class aborts the run.
package mapping

import (
	"fmt"

	"dwcarchive/internal/diag"
	"dwcarchive/internal/mappingschema"
	"dwcarchive/internal/table"
)

const stage = "mapping"

// Resolver applies a mapping schema to source tables.
type Resolver struct {
	schema *mappingschema.Schema
}

// NewResolver constructs a resolver over the loaded schema.
func NewResolver(schema *mappingschema.Schema) *Resolver {
	return &Resolver{schema: schema}
}

// Resolve produces a table with one column per target field of the named
// class that has exactly one exact mapping resolvable against src, where src
// is known to the schema under sourceName. A missing class is the only fatal
// condition.
func (r *Resolver) Resolve(class string, src *table.Table, sourceName string) (*table.Table, []diag.Diagnostic, error) {
	cls, ok := r.schema.Class(class)
	if !ok {
		return nil, nil, fmt.Errorf("target class %q not defined in mapping schema", class)
	}

	var dc diag.Collector
	var columns []string
	var resolved []mappingschema.Slot
	for _, name := range cls.Slots {
		slot, ok := r.schema.Slot(name)
		if !ok {
			// Load-time validation guarantees this; guard anyway.
			dc.Warnf(stage, "%s.%s: slot definition missing", class, name)
			continue
		}
		switch len(slot.ExactMappings) {
		case 0:
			if slot.Required {
				dc.Warnf(stage, "%s.%s: required field has no exact mapping", class, name)
			}
			continue
		case 1:
			// resolvable below
		default:
			if slot.Required {
				dc.Warnf(stage, "%s.%s: required field has %d exact mappings, expected one", class, name, len(slot.ExactMappings))
			}
			continue
		}
		ref := slot.ExactMappings[0]
		if ref.Table != sourceName || !src.HasColumn(ref.Column) {
			if slot.Required {
				dc.Warnf(stage, "%s.%s: required field maps to %s which is absent from source %s", class, name, ref, sourceName)
			}
			continue
		}
		columns = append(columns, name)
		resolved = append(resolved, slot)
	}

	out := table.New(columns...)
	for row := 0; row < src.NumRows(); row++ {
		cells := make(map[string]table.Value, len(resolved))
		for _, slot := range resolved {
			raw := src.Cell(row, slot.ExactMappings[0].Column)
			cells[slot.Name] = coerce(slot, raw, row, &dc)
		}
		if err := out.AppendRow(cells); err != nil {
			return nil, nil, err
		}
	}
	return out, dc.Entries(), nil
}

// coerce casts a source value to the slot's declared range. Missing inputs
// and failed conversions both yield the missing marker; failures are
// additionally recorded as diagnostics.
func coerce(slot mappingschema.Slot, v table.Value, row int, dc *diag.Collector) table.Value {
	if v.IsMissing() {
		return table.Missing()
	}
	switch slot.Range {
	case mappingschema.RangeInteger:
		i, err := v.Int()
		if err != nil {
			dc.Errorf(stage, "%s row %d: cannot coerce %q to integer", slot.Name, row, v.String())
			return table.Missing()
		}
		return table.Int(i)
	case mappingschema.RangeFloat, mappingschema.RangeDouble:
		f, err := v.Float()
		if err != nil {
			dc.Errorf(stage, "%s row %d: cannot coerce %q to float", slot.Name, row, v.String())
			return table.Missing()
		}
		return table.Float(f)
	default:
		return v
	}
}

// Merge combines the hand-coded table with the resolver's output. Precedence
// is per column, never per row: a column present in primary is taken from
// primary wholesale, and secondary only contributes columns primary lacks.
// A row-count mismatch makes the secondary table unusable; it is dropped with
// a diagnostic rather than aborting the run.
func Merge(primary, secondary *table.Table) (*table.Table, []diag.Diagnostic) {
	var dc diag.Collector
	if secondary == nil {
		return primary, nil
	}
	if primary.NumRows() != secondary.NumRows() {
		dc.Warnf(stage, "merge: row count mismatch (%d vs %d), schema-mapped columns dropped", primary.NumRows(), secondary.NumRows())
		return primary, dc.Entries()
	}
	out := primary
	for _, col := range secondary.Columns() {
		if out.HasColumn(col) {
			continue
		}
		values, _ := secondary.Column(col)
		merged, err := out.WithColumn(col, values)
		if err != nil {
			dc.Warnf(stage, "merge: column %s dropped: %v", col, err)
			continue
		}
		out = merged
	}
	return out, dc.Entries()
}
