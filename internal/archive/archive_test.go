package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"dwcarchive/internal/table"
)

func miniTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("eventID", "eventDate", "eventRemarks")
	err := tbl.AppendRow(map[string]table.Value{
		"eventID":      table.String("CR1:ST1"),
		"eventDate":    table.Missing(),
		"eventRemarks": table.String("line one\nwith tab\there"),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return tbl
}

func TestRenderTSV(t *testing.T) {
	got := RenderTSV(miniTable(t))
	want := "eventID\teventDate\teventRemarks\n" +
		"CR1:ST1\t\tline one with tab here\n"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestMetaXMLMatchesColumnLists(t *testing.T) {
	meta := MetaXML()

	if !strings.Contains(meta, `metadata="eml.xml"`) {
		t.Error("descriptor must reference the metadata document")
	}
	if !strings.Contains(meta, `rowType="http://rs.tdwg.org/dwc/terms/Event"`) {
		t.Error("missing event core block")
	}
	if !strings.Contains(meta, `rowType="http://rs.iobis.org/obis/terms/ExtendedMeasurementOrFact"`) {
		t.Error("missing measurement extension block")
	}
	if !strings.Contains(meta, `<id index="0"/>`) {
		t.Error("core id must be the event table's first column")
	}
	if strings.Count(meta, `<coreid index="1"/>`) != 2 {
		t.Error("both extensions must link through column index 1")
	}
	if !strings.Contains(meta, `<field index="0" term="http://rs.tdwg.org/dwc/terms/eventID"/>`) {
		t.Error("eventID term missing from core field list")
	}
	if !strings.Contains(meta, `term="http://rs.tdwg.org/dwc/terms/footprintWKT"`) {
		t.Error("footprintWKT must be declared in the descriptor")
	}
}

func TestWriteProducesCompleteZip(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Bundle{
		Event:       miniTable(t),
		Occurrence:  miniTable(t),
		Measurement: miniTable(t),
		EML:         "<eml/>",
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	want := map[string]bool{
		EventFile:       false,
		OccurrenceFile:  false,
		MeasurementFile: false,
		MetaFile:        false,
		EMLFile:         false,
	}
	for _, f := range zr.File {
		if _, ok := want[f.Name]; !ok {
			t.Errorf("unexpected entry %s", f.Name)
			continue
		}
		want[f.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing entry %s", name)
		}
	}

	rc, err := zr.Open(EMLFile)
	if err != nil {
		t.Fatalf("open eml: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "<eml/>" {
		t.Errorf("eml body: %q", body)
	}
}

func TestWriteRejectsIncompleteBundle(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Bundle{Event: miniTable(t), EML: "<eml/>"})
	if err == nil {
		t.Fatal("incomplete bundle must be rejected")
	}
	if buf.Len() != 0 {
		t.Error("no partial archive may be written")
	}
}
