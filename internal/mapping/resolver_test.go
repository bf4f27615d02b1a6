package mapping

import (
	"strings"
	"testing"

	"dwcarchive/internal/diag"
	"dwcarchive/internal/mappingschema"
	"dwcarchive/internal/table"
)

const resolverDoc = `
classes:
  Event:
    slots:
      - eventDate
      - minimumDepthInMeters
      - sampleSizeValue
      - fieldNumber
      - habitat
slots:
  eventDate:
    range: string
    required: true
    exact_mappings:
      - ow1_tows:time
  minimumDepthInMeters:
    range: float
    exact_mappings:
      - ow1_tows:depth_min
  sampleSizeValue:
    range: integer
    exact_mappings:
      - ow1_tows:tow_duration_minutes
  fieldNumber:
    range: string
    required: true
    exact_mappings:
      - ow1_tows:station
      - ow1_tows:tow_number
  habitat:
    range: string
    required: true
`

func loadSchema(t *testing.T, doc string) *mappingschema.Schema {
	t.Helper()
	s, diags, err := mappingschema.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("schema diagnostics: %v", diags)
	}
	return s
}

func towsFixture(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("time", "depth_min", "tow_duration_minutes", "station", "tow_number")
	rows := []map[string]table.Value{
		{
			"time":                 table.String("2023-06-01T12:00:00Z"),
			"depth_min":            table.String("18.5"),
			"tow_duration_minutes": table.String("20"),
			"station":              table.String("ST1"),
			"tow_number":           table.String("1"),
		},
		{
			"time":                 table.String("2023-06-01T14:00:00Z"),
			"depth_min":            table.String("not-a-number"),
			"tow_duration_minutes": table.String("20.0"),
			"station":              table.String("ST2"),
			"tow_number":           table.String("2"),
		},
		{
			"time":    table.String("2023-06-02T09:30:00Z"),
			"station": table.String("ST3"),
		},
	}
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("append fixture row: %v", err)
		}
	}
	return tbl
}

func TestResolveRoundTripsSingleExactMapping(t *testing.T) {
	r := NewResolver(loadSchema(t, resolverDoc))
	out, _, err := r.Resolve("Event", towsFixture(t), "ow1_tows")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := out.Cell(0, "eventDate").String(); got != "2023-06-01T12:00:00Z" {
		t.Errorf("eventDate: %q", got)
	}
	if got := out.Cell(0, "minimumDepthInMeters").String(); got != "18.5" {
		t.Errorf("depth: %q", got)
	}
}

func TestResolveSkipsAmbiguousFields(t *testing.T) {
	r := NewResolver(loadSchema(t, resolverDoc))
	out, diags, err := r.Resolve("Event", towsFixture(t), "ow1_tows")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.HasColumn("fieldNumber") {
		t.Error("field with two exact mappings must produce no output column")
	}
	if out.HasColumn("habitat") {
		t.Error("field with zero exact mappings must produce no output column")
	}
	var ambiguous, unmapped bool
	for _, d := range diags {
		if strings.Contains(d.Message, "fieldNumber") {
			ambiguous = true
		}
		if strings.Contains(d.Message, "habitat") {
			unmapped = true
		}
	}
	if !ambiguous || !unmapped {
		t.Errorf("missing required-field diagnostics: %v", diags)
	}
}

func TestResolveCoercion(t *testing.T) {
	r := NewResolver(loadSchema(t, resolverDoc))
	out, diags, err := r.Resolve("Event", towsFixture(t), "ow1_tows")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Integer coercion accepts float-shaped integral values.
	if got := out.Cell(1, "sampleSizeValue").String(); got != "20" {
		t.Errorf("sampleSizeValue: %q", got)
	}
	// Failed conversion becomes the missing marker plus a diagnostic.
	if !out.Cell(1, "minimumDepthInMeters").IsMissing() {
		t.Error("failed float conversion should yield missing marker")
	}
	var coercion bool
	for _, d := range diags {
		if d.Severity == diag.SeverityError && strings.Contains(d.Message, "cannot coerce") {
			coercion = true
		}
	}
	if !coercion {
		t.Errorf("expected coercion diagnostic, got %v", diags)
	}
	// Missing source values stay missing with no diagnostic.
	if !out.Cell(2, "minimumDepthInMeters").IsMissing() {
		t.Error("missing source value should stay missing")
	}
}

func TestResolveMissingColumnSkipsField(t *testing.T) {
	doc := `
classes:
  Event:
    slots: [eventDate]
slots:
  eventDate:
    range: string
    required: true
    exact_mappings:
      - ow1_tows:no_such_column
`
	r := NewResolver(loadSchema(t, doc))
	src := table.New("time")
	_ = src.AppendRow(map[string]table.Value{"time": table.String("x")})

	out, diags, err := r.Resolve("Event", src, "ow1_tows")
	if err != nil {
		t.Fatalf("resolve must not abort on missing column: %v", err)
	}
	if out.HasColumn("eventDate") {
		t.Error("unresolvable field must be skipped")
	}
	if len(diags) == 0 {
		t.Error("expected diagnostic for missing required column")
	}
	if out.NumRows() != 1 {
		t.Errorf("row count: %d", out.NumRows())
	}
}

func TestResolveUnknownClassIsFatal(t *testing.T) {
	r := NewResolver(loadSchema(t, resolverDoc))
	if _, _, err := r.Resolve("Taxon", towsFixture(t), "ow1_tows"); err == nil {
		t.Fatal("expected error for unknown target class")
	}
}

func TestMergePrefersHandCodedColumns(t *testing.T) {
	primary := table.New("eventID", "eventDate")
	_ = primary.AppendRow(map[string]table.Value{"eventID": table.String("CR1:ST1"), "eventDate": table.String("hand")})

	secondary := table.New("eventDate", "habitat")
	_ = secondary.AppendRow(map[string]table.Value{"eventDate": table.String("auto"), "habitat": table.String("benthic")})

	merged, diags := Merge(primary, secondary)
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if got := merged.Cell(0, "eventDate").String(); got != "hand" {
		t.Errorf("hand-coded column must win, got %q", got)
	}
	if got := merged.Cell(0, "habitat").String(); got != "benthic" {
		t.Errorf("gap column must be filled, got %q", got)
	}
	cols := merged.Columns()
	if cols[0] != "eventID" || cols[1] != "eventDate" || cols[2] != "habitat" {
		t.Errorf("column order: %v", cols)
	}
}

func TestMergeRowMismatchDropsSecondary(t *testing.T) {
	primary := table.New("eventID")
	_ = primary.AppendRow(map[string]table.Value{"eventID": table.String("a")})
	_ = primary.AppendRow(map[string]table.Value{"eventID": table.String("b")})

	secondary := table.New("habitat")
	_ = secondary.AppendRow(map[string]table.Value{"habitat": table.String("x")})

	merged, diags := Merge(primary, secondary)
	if merged.HasColumn("habitat") {
		t.Error("mismatched secondary must be dropped")
	}
	if len(diags) != 1 {
		t.Errorf("diagnostics: %v", diags)
	}
}
