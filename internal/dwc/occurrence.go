package dwc

import (
	"dwcarchive/internal/diag"
	"dwcarchive/internal/table"
)

const (
	basisOfRecord        = "HumanObservation"
	occurrenceStatus     = "present"
	taxonRank            = "species"
	kingdom              = "Animalia"
	organismQuantityType = "biomass in kg"

	occurrenceStage = "occurrence"
)

// BuildOccurrences joins catch records against the species lookup on common
// name (left join: unmatched rows keep null taxonomy) and emits exactly one
// occurrence per catch row in input order. Duplicate natural keys in the
// catch table produce duplicate occurrence identifiers; no de-duplication is
// attempted here.
func BuildOccurrences(catch, species *table.Table) (*table.Table, []diag.Diagnostic, error) {
	var dc diag.Collector

	lookup := speciesLookup(species)
	out := table.New(OccurrenceColumns...)

	for row := 0; row < catch.NumRows(); row++ {
		cruise := catch.Cell(row, ColCruise).String()
		station := catch.Cell(row, ColStation).String()
		common := catch.Cell(row, ColSpeciesCommonName).String()
		sizeClass := catch.Cell(row, ColSizeClass).String()

		cells := map[string]table.Value{
			"occurrenceID":     table.String(OccurrenceID(cruise, station, common, sizeClass)),
			"eventID":          table.String(EventID(cruise, station)),
			"basisOfRecord":    table.String(basisOfRecord),
			"occurrenceStatus": table.String(occurrenceStatus),
			"vernacularName":   table.String(common),
			"taxonRank":        table.String(taxonRank),
			"kingdom":          table.String(kingdom),
		}

		if sp, ok := lookup[common]; ok {
			if v := species.Cell(sp, ColScientificName); !v.IsMissing() {
				cells["scientificName"] = v
			}
			if lsid, ok := TaxonLSID(species.Cell(sp, ColITISTSN)); ok {
				cells["scientificNameID"] = table.String(lsid)
			}
		} else {
			dc.Warnf(occurrenceStage, "row %d: species %q not found in lookup, taxonomy left null", row, common)
		}

		if v := catch.Cell(row, ColTotalCount); !v.IsMissing() {
			n, err := v.Int()
			if err != nil {
				dc.Errorf(occurrenceStage, "row %d: individual count %q is not an integer", row, v.String())
			} else {
				cells["individualCount"] = table.Int(n)
			}
		}
		if v := catch.Cell(row, ColTotalWeight); !v.IsMissing() {
			f, err := v.Float()
			if err != nil {
				dc.Errorf(occurrenceStage, "row %d: total weight %q is not numeric", row, v.String())
			} else {
				cells["organismQuantity"] = table.Float(f)
				cells["organismQuantityType"] = table.String(organismQuantityType)
			}
		}

		if err := out.AppendRow(cells); err != nil {
			return nil, nil, err
		}
	}
	return out, dc.Entries(), nil
}

// speciesLookup indexes the species table by common name; the first row wins
// when the lookup contains duplicates.
func speciesLookup(species *table.Table) map[string]int {
	idx := make(map[string]int, species.NumRows())
	for row := 0; row < species.NumRows(); row++ {
		name := species.Cell(row, ColSpeciesCommonName).String()
		if name == "" {
			continue
		}
		if _, seen := idx[name]; !seen {
			idx[name] = row
		}
	}
	return idx
}
