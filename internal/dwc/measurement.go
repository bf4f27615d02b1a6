package dwc

import (
	"fmt"

	"dwcarchive/internal/diag"
	"dwcarchive/internal/table"
)

const (
	caliperMethod     = "Caliper measurement"
	defaultLengthType = "TL"

	measurementStage = "measurement"
)

// measurementKind declares one expandable catch attribute. Expansion is
// sparse by design: a fact row is appended if and only if the source column
// carries a value; a present-but-zero value still counts as present.
type measurementKind struct {
	kind    string
	column  string
	unit    string
	typeID  string
	method  string
	integer bool
	// typeLabel and remarks may depend on the row's length type.
	typeLabel func(lengthType string) string
	remarks   func(lengthType string) string
}

var measurementKinds = []measurementKind{
	{
		kind:      "size_class",
		column:    ColSizeClass,
		method:    samplingProtocol,
		typeLabel: func(string) string { return "size class" },
	},
	{
		kind:      "weight",
		column:    ColTotalWeight,
		unit:      "kg",
		typeID:    "http://vocab.nerc.ac.uk/collection/P01/current/OWETXX01/",
		method:    samplingProtocol,
		typeLabel: func(string) string { return "total biomass" },
	},
	{
		kind:      "count",
		column:    ColTotalCount,
		unit:      "individuals",
		typeID:    "http://vocab.nerc.ac.uk/collection/P01/current/OCOUNT01/",
		method:    samplingProtocol,
		integer:   true,
		typeLabel: func(string) string { return "abundance" },
	},
	{
		kind:      "mean_length",
		column:    ColMeanLength,
		unit:      "mm",
		typeID:    "http://vocab.nerc.ac.uk/collection/P01/current/FL01XX01/",
		method:    caliperMethod,
		typeLabel: func(lt string) string { return fmt.Sprintf("mean %s length", lt) },
		remarks:   func(lt string) string { return "Length type: " + lt },
	},
	{
		kind:      "std_length",
		column:    ColStdLength,
		unit:      "mm",
		typeID:    "http://vocab.nerc.ac.uk/collection/S06/current/S0600138/",
		method:    caliperMethod,
		typeLabel: func(lt string) string { return fmt.Sprintf("std dev %s length", lt) },
		remarks:   func(lt string) string { return "Length type: " + lt },
	},
}

// BuildMeasurements expands each catch row into zero or more measurement
// facts, one per populated attribute, iterating the declared kinds in a fixed
// order. Count values are coerced to integer; weights and lengths stay
// floating point.
func BuildMeasurements(catch *table.Table) (*table.Table, []diag.Diagnostic, error) {
	var dc diag.Collector
	out := table.New(MeasurementColumns...)

	for row := 0; row < catch.NumRows(); row++ {
		cruise := catch.Cell(row, ColCruise).String()
		station := catch.Cell(row, ColStation).String()
		common := catch.Cell(row, ColSpeciesCommonName).String()
		sizeClass := catch.Cell(row, ColSizeClass).String()

		occurrenceID := OccurrenceID(cruise, station, common, sizeClass)
		eventID := EventID(cruise, station)

		lengthType := defaultLengthType
		if v := catch.Cell(row, ColLengthType); !v.IsMissing() && v.String() != "" {
			lengthType = v.String()
		}

		for _, mk := range measurementKinds {
			raw := catch.Cell(row, mk.column)
			if raw.IsMissing() {
				continue
			}
			value := raw
			if mk.integer {
				n, err := raw.Int()
				if err != nil {
					dc.Errorf(measurementStage, "row %d: %s value %q is not an integer, fact skipped", row, mk.kind, raw.String())
					continue
				}
				value = table.Int(n)
			}

			cells := map[string]table.Value{
				"occurrenceID":      table.String(occurrenceID),
				"eventID":           table.String(eventID),
				"measurementID":     table.String(MeasurementID(occurrenceID, mk.kind)),
				"measurementType":   table.String(mk.typeLabel(lengthType)),
				"measurementValue":  value,
				"measurementMethod": table.String(mk.method),
			}
			if mk.unit != "" {
				cells["measurementUnit"] = table.String(mk.unit)
			}
			if mk.typeID != "" {
				cells["measurementTypeID"] = table.String(mk.typeID)
			}
			if mk.remarks != nil {
				cells["measurementRemarks"] = table.String(mk.remarks(lengthType))
			}

			if err := out.AppendRow(cells); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, dc.Entries(), nil
}
