package dwc

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"dwcarchive/internal/diag"
	"dwcarchive/internal/table"
)

const (
	geodeticDatum    = "EPSG:4326"
	samplingProtocol = "Bottom otter trawl"
	sampleSizeUnit   = "minutes"

	eventStage = "event"
)

// BuildCruiseEvents groups tow records by cruise key and synthesizes one
// parent event per cruise, in first-seen order. The cruise event's date is
// the earliest tow time in its group; ties keep the first value in input
// order. Cruise events carry no parent and no geometry.
func BuildCruiseEvents(tows *table.Table) (*table.Table, []diag.Diagnostic, error) {
	var dc diag.Collector
	warnMissingColumns(tows, []string{ColCruise, ColTime}, &dc)

	type group struct {
		earliest table.Value
	}
	var order []string
	groups := make(map[string]*group)

	for row := 0; row < tows.NumRows(); row++ {
		cruise := tows.Cell(row, ColCruise).String()
		g, ok := groups[cruise]
		if !ok {
			g = &group{earliest: tows.Cell(row, ColTime)}
			groups[cruise] = g
			order = append(order, cruise)
			continue
		}
		if towTimeLess(tows.Cell(row, ColTime), g.earliest) {
			g.earliest = tows.Cell(row, ColTime)
		}
	}

	out := table.New(EventColumns...)
	for _, cruise := range order {
		cells := map[string]table.Value{
			"eventID":          table.String(cruise),
			"eventDate":        groups[cruise].earliest,
			"samplingProtocol": table.String(samplingProtocol),
		}
		if err := out.AppendRow(cells); err != nil {
			return nil, nil, err
		}
	}
	return out, dc.Entries(), nil
}

// BuildTowEvents emits one event per tow record in input order, each
// referencing its cruise as parent and carrying derived geometry: the
// midpoint of start and end coordinates rounded to six decimal places, and a
// WKT line literal built from the unrounded coordinate pairs.
func BuildTowEvents(tows *table.Table) (*table.Table, []diag.Diagnostic, error) {
	var dc diag.Collector
	warnMissingColumns(tows, []string{
		ColCruise, ColStation, ColTime,
		ColLatitude, ColLongitude, ColEndLatitude, ColEndLongitud,
	}, &dc)

	out := table.New(EventColumns...)
	for row := 0; row < tows.NumRows(); row++ {
		cruise := tows.Cell(row, ColCruise).String()
		station := tows.Cell(row, ColStation).String()

		cells := map[string]table.Value{
			"eventID":          table.String(EventID(cruise, station)),
			"parentEventID":    table.String(cruise),
			"eventDate":        tows.Cell(row, ColTime),
			"geodeticDatum":    table.String(geodeticDatum),
			"samplingProtocol": table.String(samplingProtocol),
			"sampleSizeValue":  tows.Cell(row, ColTowDuration),
			"sampleSizeUnit":   table.String(sampleSizeUnit),
		}
		if v := tows.Cell(row, ColDepthMin); !v.IsMissing() {
			cells["minimumDepthInMeters"] = v
		}
		if v := tows.Cell(row, ColDepthMax); !v.IsMissing() {
			cells["maximumDepthInMeters"] = v
		}

		startLat, startLon, endLat, endLon, err := towCoordinates(tows, row)
		if err != nil {
			dc.Warnf(eventStage, "row %d (%s): %v, geometry omitted", row, EventID(cruise, station), err)
		} else {
			cells["decimalLatitude"] = table.Float(round6((startLat + endLat) / 2))
			cells["decimalLongitude"] = table.Float(round6((startLon + endLon) / 2))
			cells["footprintWKT"] = table.String(lineWKT(startLat, startLon, endLat, endLon))
			cells["eventRemarks"] = table.String(fmt.Sprintf("Start: %.4f,%.4f; End: %.4f,%.4f", startLat, startLon, endLat, endLon))
		}

		if err := out.AppendRow(cells); err != nil {
			return nil, nil, err
		}
	}
	return out, dc.Entries(), nil
}

func towCoordinates(tows *table.Table, row int) (startLat, startLon, endLat, endLon float64, err error) {
	parse := func(col string) (float64, error) {
		v := tows.Cell(row, col)
		if v.IsMissing() {
			return 0, fmt.Errorf("%s missing", col)
		}
		f, err := v.Float()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", col, err)
		}
		return f, nil
	}
	if startLat, err = parse(ColLatitude); err != nil {
		return
	}
	if startLon, err = parse(ColLongitude); err != nil {
		return
	}
	if endLat, err = parse(ColEndLatitude); err != nil {
		return
	}
	endLon, err = parse(ColEndLongitud)
	return
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func lineWKT(startLat, startLon, endLat, endLon float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("LINESTRING (%s %s, %s %s)", f(startLon), f(startLat), f(endLon), f(endLat))
}

// towTimeLess orders tow timestamps. ISO 8601 values compare by instant;
// anything unparseable falls back to lexicographic order, which matches the
// chronological order for uniformly formatted upstream exports.
func towTimeLess(a, b table.Value) bool {
	if a.IsMissing() {
		return false
	}
	if b.IsMissing() {
		return true
	}
	ta, errA := time.Parse(time.RFC3339, a.String())
	tb, errB := time.Parse(time.RFC3339, b.String())
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return a.String() < b.String()
}

func warnMissingColumns(t *table.Table, required []string, dc *diag.Collector) {
	for _, col := range required {
		if !t.HasColumn(col) {
			dc.Warnf(eventStage, "source table lacks required column %q", col)
		}
	}
}
