package dwc

import (
	"strings"
	"testing"

	"dwcarchive/internal/table"
)

func catchTable(t *testing.T, rows []map[string]table.Value) *table.Table {
	t.Helper()
	tbl := table.New(ColCruise, ColStation, ColSpeciesCommonName, ColSizeClass,
		ColTotalWeight, ColTotalCount, ColMeanLength, ColStdLength, ColLengthType)
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return tbl
}

func speciesTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New(ColSpeciesCommonName, ColScientificName, ColITISTSN)
	rows := []map[string]table.Value{
		{
			ColSpeciesCommonName: table.String("Winter Flounder"),
			ColScientificName:    table.String("Pseudopleuronectes americanus"),
			ColITISTSN:           table.String("172905"),
		},
		{
			ColSpeciesCommonName: table.String("Scup"),
			ColScientificName:    table.String("Stenotomus chrysops"),
		},
	}
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return tbl
}

func TestBuildOccurrencesJoinsSpeciesLookup(t *testing.T) {
	catch := catchTable(t, []map[string]table.Value{{
		ColCruise:            table.String("CR1"),
		ColStation:           table.String("ST1"),
		ColSpeciesCommonName: table.String("Winter Flounder"),
		ColTotalWeight:       table.String("12.5"),
		ColTotalCount:        table.String("31"),
	}})

	occ, diags, err := BuildOccurrences(catch, speciesTable(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if got := occ.Cell(0, "occurrenceID").String(); got != "CR1:ST1:Winter_Flounder" {
		t.Errorf("occurrenceID: %q", got)
	}
	if got := occ.Cell(0, "eventID").String(); got != "CR1:ST1" {
		t.Errorf("eventID: %q", got)
	}
	if got := occ.Cell(0, "scientificName").String(); got != "Pseudopleuronectes americanus" {
		t.Errorf("scientificName: %q", got)
	}
	if got := occ.Cell(0, "scientificNameID").String(); got != "urn:lsid:itis.gov:itis_tsn:172905" {
		t.Errorf("scientificNameID: %q", got)
	}
	if got := occ.Cell(0, "individualCount").String(); got != "31" {
		t.Errorf("individualCount: %q", got)
	}
	if got := occ.Cell(0, "organismQuantity").String(); got != "12.5" {
		t.Errorf("organismQuantity: %q", got)
	}
	if got := occ.Cell(0, "organismQuantityType").String(); got != "biomass in kg" {
		t.Errorf("organismQuantityType: %q", got)
	}
}

func TestBuildOccurrencesLeftJoinKeepsUnmatchedRows(t *testing.T) {
	catch := catchTable(t, []map[string]table.Value{{
		ColCruise:            table.String("CR1"),
		ColStation:           table.String("ST2"),
		ColSpeciesCommonName: table.String("Mystery Fish"),
	}})

	occ, diags, err := BuildOccurrences(catch, speciesTable(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if occ.NumRows() != 1 {
		t.Fatalf("unmatched row must still be emitted, got %d rows", occ.NumRows())
	}
	if !occ.Cell(0, "scientificName").IsMissing() {
		t.Error("unmatched row must keep null taxonomy")
	}
	if !occ.Cell(0, "scientificNameID").IsMissing() {
		t.Error("unmatched row must have no taxonomic identifier")
	}
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "Mystery Fish") {
		t.Errorf("diagnostics: %v", diags)
	}
}

func TestBuildOccurrencesMissingSerialNumberYieldsNoLSID(t *testing.T) {
	catch := catchTable(t, []map[string]table.Value{{
		ColCruise:            table.String("CR1"),
		ColStation:           table.String("ST1"),
		ColSpeciesCommonName: table.String("Scup"),
	}})

	occ, _, err := BuildOccurrences(catch, speciesTable(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := occ.Cell(0, "scientificName").String(); got != "Stenotomus chrysops" {
		t.Errorf("scientificName: %q", got)
	}
	if !occ.Cell(0, "scientificNameID").IsMissing() {
		t.Error("missing serial number must yield no identifier, not an empty string")
	}
}

func TestBuildOccurrencesSizeClassInIdentifier(t *testing.T) {
	catch := catchTable(t, []map[string]table.Value{{
		ColCruise:            table.String("CR1"),
		ColStation:           table.String("ST1"),
		ColSpeciesCommonName: table.String("Winter Flounder"),
		ColSizeClass:         table.String("small"),
	}})

	occ, _, err := BuildOccurrences(catch, speciesTable(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := occ.Cell(0, "occurrenceID").String(); got != "CR1:ST1:Winter_Flounder:SMALL" {
		t.Errorf("occurrenceID: %q", got)
	}
}

func TestBuildOccurrencesDuplicateTuplesEmitDuplicateIDs(t *testing.T) {
	row := map[string]table.Value{
		ColCruise:            table.String("CR1"),
		ColStation:           table.String("ST1"),
		ColSpeciesCommonName: table.String("Scup"),
	}
	catch := catchTable(t, []map[string]table.Value{row, row})

	occ, _, err := BuildOccurrences(catch, speciesTable(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if occ.NumRows() != 2 {
		t.Fatalf("no de-duplication expected, got %d rows", occ.NumRows())
	}
	if occ.Cell(0, "occurrenceID").String() != occ.Cell(1, "occurrenceID").String() {
		t.Error("duplicate tuples must produce duplicate identifiers")
	}
}
