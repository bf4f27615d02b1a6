package dwc

import (
	"strings"
	"testing"

	"dwcarchive/internal/table"
)

func towTable(t *testing.T, rows []map[string]table.Value) *table.Table {
	t.Helper()
	tbl := table.New(ColCruise, ColStation, ColTime,
		ColLatitude, ColLongitude, ColEndLatitude, ColEndLongitud,
		ColDepthMin, ColDepthMax, ColTowDuration)
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return tbl
}

func towRow(cruise, station, when string) map[string]table.Value {
	return map[string]table.Value{
		ColCruise:      table.String(cruise),
		ColStation:     table.String(station),
		ColTime:        table.String(when),
		ColLatitude:    table.String("40.1000"),
		ColLongitude:   table.String("-73.5000"),
		ColEndLatitude: table.String("40.2000"),
		ColEndLongitud: table.String("-73.6000"),
	}
}

func TestBuildCruiseEventsGroupsAndTakesEarliestTime(t *testing.T) {
	tows := towTable(t, []map[string]table.Value{
		towRow("CR1", "ST1", "2023-06-01T14:00:00Z"),
		towRow("CR1", "ST2", "2023-06-01T08:00:00Z"),
		towRow("CR2", "ST1", "2023-06-05T10:00:00Z"),
		towRow("CR1", "ST3", "2023-06-02T08:00:00Z"),
	})

	cruises, diags, err := BuildCruiseEvents(tows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if cruises.NumRows() != 2 {
		t.Fatalf("want 2 cruise events, got %d", cruises.NumRows())
	}
	if got := cruises.Cell(0, "eventID").String(); got != "CR1" {
		t.Errorf("first cruise: %q", got)
	}
	if got := cruises.Cell(0, "eventDate").String(); got != "2023-06-01T08:00:00Z" {
		t.Errorf("cruise date must be earliest tow time, got %q", got)
	}
	if got := cruises.Cell(1, "eventID").String(); got != "CR2" {
		t.Errorf("second cruise: %q", got)
	}
	if !cruises.Cell(0, "parentEventID").IsMissing() {
		t.Error("cruise events carry no parent")
	}
}

func TestBuildTowEventsGeometry(t *testing.T) {
	tows := towTable(t, []map[string]table.Value{towRow("CR1", "ST1", "2023-06-01T12:00:00Z")})

	events, diags, err := BuildTowEvents(tows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if got := events.Cell(0, "eventID").String(); got != "CR1:ST1" {
		t.Errorf("eventID: %q", got)
	}
	if got := events.Cell(0, "parentEventID").String(); got != "CR1" {
		t.Errorf("parentEventID: %q", got)
	}
	if got := events.Cell(0, "decimalLatitude").String(); got != "40.15" {
		t.Errorf("midpoint latitude: %q", got)
	}
	if got := events.Cell(0, "decimalLongitude").String(); got != "-73.55" {
		t.Errorf("midpoint longitude: %q", got)
	}
	wkt := events.Cell(0, "footprintWKT").String()
	if wkt != "LINESTRING (-73.5 40.1, -73.6 40.2)" {
		t.Errorf("footprintWKT: %q", wkt)
	}
	if got := events.Cell(0, "eventRemarks").String(); got != "Start: 40.1000,-73.5000; End: 40.2000,-73.6000" {
		t.Errorf("eventRemarks: %q", got)
	}
	if got := events.Cell(0, "geodeticDatum").String(); got != "EPSG:4326" {
		t.Errorf("geodeticDatum: %q", got)
	}
}

func TestBuildTowEventsMidpointRounding(t *testing.T) {
	row := towRow("CR1", "ST1", "2023-06-01T12:00:00Z")
	row[ColLatitude] = table.String("40.1234567")
	row[ColEndLatitude] = table.String("40.1234568")
	tows := towTable(t, []map[string]table.Value{row})

	events, _, err := BuildTowEvents(tows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := events.Cell(0, "decimalLatitude").String(); got != "40.123457" {
		t.Errorf("rounded latitude: %q", got)
	}
}

func TestBuildTowEventsBadCoordinatesOmitGeometry(t *testing.T) {
	row := towRow("CR1", "ST1", "2023-06-01T12:00:00Z")
	row[ColEndLatitude] = table.String("garbled")
	tows := towTable(t, []map[string]table.Value{row})

	events, diags, err := BuildTowEvents(tows)
	if err != nil {
		t.Fatalf("bad coordinates must not abort: %v", err)
	}
	if !events.Cell(0, "decimalLatitude").IsMissing() {
		t.Error("geometry must be omitted")
	}
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "geometry omitted") {
		t.Errorf("diagnostics: %v", diags)
	}
	// The event row itself is still emitted.
	if got := events.Cell(0, "eventID").String(); got != "CR1:ST1" {
		t.Errorf("eventID: %q", got)
	}
}

func TestBuildTowEventsPreservesInputOrderAndParents(t *testing.T) {
	tows := towTable(t, []map[string]table.Value{
		towRow("CR2", "ST9", "2023-06-05T10:00:00Z"),
		towRow("CR1", "ST1", "2023-06-01T12:00:00Z"),
	})
	events, _, err := BuildTowEvents(tows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := events.Cell(0, "eventID").String(); got != "CR2:ST9" {
		t.Errorf("input order not preserved: %q", got)
	}

	cruises, _, err := BuildCruiseEvents(tows)
	if err != nil {
		t.Fatalf("build cruises: %v", err)
	}
	// Every tow parent must equal exactly one cruise event identifier.
	ids := map[string]int{}
	for row := 0; row < cruises.NumRows(); row++ {
		ids[cruises.Cell(row, "eventID").String()]++
	}
	for row := 0; row < events.NumRows(); row++ {
		parent := events.Cell(row, "parentEventID").String()
		if ids[parent] != 1 {
			t.Errorf("tow %d parent %q matches %d cruise events", row, parent, ids[parent])
		}
	}
}

func TestBuildCruiseEventsMissingColumnsDiagnoseNotAbort(t *testing.T) {
	bare := table.New("something_else")
	_ = bare.AppendRow(map[string]table.Value{"something_else": table.String("x")})

	_, diags, err := BuildCruiseEvents(bare)
	if err != nil {
		t.Fatalf("missing columns must not abort: %v", err)
	}
	if len(diags) == 0 {
		t.Fatal("expected missing-column diagnostics")
	}
}
