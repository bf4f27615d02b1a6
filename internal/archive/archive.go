// Package archive renders transformed tables as a zipped Darwin Core
// Archive: tab-delimited data files, a meta.xml descriptor and an EML
// metadata document.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"dwcarchive/internal/dwc"
	"dwcarchive/internal/table"
)

// Data file names inside the archive.
const (
	EventFile       = "event.txt"
	OccurrenceFile  = "occurrence.txt"
	MeasurementFile = "extendedmeasurementorfact.txt"
	MetaFile        = "meta.xml"
	EMLFile         = "eml.xml"
)

// Bundle is everything that goes into one archive. All tables must be
// present: a bundle with a missing table is not a valid output state.
type Bundle struct {
	Event       *table.Table
	Occurrence  *table.Table
	Measurement *table.Table
	EML         string
}

func (b Bundle) validate() error {
	if b.Event == nil || b.Occurrence == nil || b.Measurement == nil {
		return fmt.Errorf("archive bundle requires all three tables")
	}
	return nil
}

// RenderTSV writes a table as tab-delimited text with a header row. Missing
// cells render as empty fields. Tabs and newlines inside cell values are
// replaced by single spaces so the row structure stays intact.
func RenderTSV(tbl *table.Table) string {
	var sb strings.Builder
	cols := tbl.Columns()
	sb.WriteString(strings.Join(cols, "\t"))
	sb.WriteByte('\n')
	for row := 0; row < tbl.NumRows(); row++ {
		for i, col := range cols {
			if i > 0 {
				sb.WriteByte('\t')
			}
			v := tbl.Cell(row, col)
			if !v.IsMissing() {
				sb.WriteString(sanitizeField(v.String()))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

var fieldSanitizer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func sanitizeField(s string) string {
	return fieldSanitizer.Replace(s)
}

// Write assembles the full archive into w. Nothing is written unless every
// part of the bundle is present.
func Write(w io.Writer, b Bundle) error {
	if err := b.validate(); err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	entries := []struct {
		name string
		body string
	}{
		{EventFile, RenderTSV(b.Event)},
		{OccurrenceFile, RenderTSV(b.Occurrence)},
		{MeasurementFile, RenderTSV(b.Measurement)},
		{MetaFile, MetaXML()},
		{EMLFile, b.EML},
	}
	for _, e := range entries {
		f, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := io.WriteString(f, e.body); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// Row types for the archive descriptor.
const (
	eventRowType       = "http://rs.tdwg.org/dwc/terms/Event"
	occurrenceRowType  = "http://rs.tdwg.org/dwc/terms/Occurrence"
	measurementRowType = "http://rs.iobis.org/obis/terms/ExtendedMeasurementOrFact"
)

// MetaXML generates the archive descriptor from the fixed output column
// lists, so the descriptor can never drift from the emitted tables. The core
// id is the Event table's first column; both extensions link through their
// eventID column at index 1.
func MetaXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<archive xmlns="http://rs.tdwg.org/dwc/text/" metadata="eml.xml">` + "\n")

	writeFileBlock(&sb, "core", eventRowType, EventFile, `<id index="0"/>`, dwc.EventColumns)
	writeFileBlock(&sb, "extension", occurrenceRowType, OccurrenceFile, `<coreid index="1"/>`, dwc.OccurrenceColumns)
	writeFileBlock(&sb, "extension", measurementRowType, MeasurementFile, `<coreid index="1"/>`, dwc.MeasurementColumns)

	sb.WriteString("</archive>\n")
	return sb.String()
}

func writeFileBlock(sb *strings.Builder, element, rowType, location, idElement string, columns []string) {
	fmt.Fprintf(sb, "  <%s encoding=\"UTF-8\" fieldsTerminatedBy=\"\\t\" linesTerminatedBy=\"\\n\" fieldsEnclosedBy=\"\" ignoreHeaderLines=\"1\" rowType=\"%s\">\n", element, rowType)
	sb.WriteString("    <files>\n")
	fmt.Fprintf(sb, "      <location>%s</location>\n", location)
	sb.WriteString("    </files>\n")
	fmt.Fprintf(sb, "    %s\n", idElement)
	for i, col := range columns {
		fmt.Fprintf(sb, "    <field index=\"%d\" term=\"%s\"/>\n", i, dwc.TermURI[col])
	}
	fmt.Fprintf(sb, "  </%s>\n", element)
}
