// Package dwc contains the hand-coded transformation from trawl survey
// records to Darwin Core Event, Occurrence, and ExtendedMeasurementOrFact
// tables. Identifier derivation is pure and deterministic so that repeated
// runs over identical inputs produce byte-identical archives.
package dwc

import (
	"fmt"
	"strings"

	"dwcarchive/internal/table"
)

// EventID derives the tow event identifier from its natural keys.
func EventID(cruise, station string) string {
	return cruise + ":" + station
}

// OccurrenceID derives the occurrence identifier. Spaces and slashes in the
// species name become underscores. A non-empty size class is uppercased, has
// spaces replaced with underscores, and is appended as a fourth segment;
// otherwise the identifier has exactly three segments.
func OccurrenceID(cruise, station, species, sizeClass string) string {
	code := strings.NewReplacer(" ", "_", "/", "_").Replace(species)
	id := cruise + ":" + station + ":" + code
	if sizeClass != "" {
		id += ":" + strings.ReplaceAll(strings.ToUpper(sizeClass), " ", "_")
	}
	return id
}

// MeasurementID derives the measurement fact identifier from its parent
// occurrence and measurement kind.
func MeasurementID(occurrenceID, kind string) string {
	return occurrenceID + "_" + kind
}

// TaxonLSID renders a numeric ITIS taxonomic serial number as a URN-style
// LSID. A missing or non-numeric serial number yields no identifier.
func TaxonLSID(tsn table.Value) (string, bool) {
	if tsn.IsMissing() {
		return "", false
	}
	n, err := tsn.Int()
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("urn:lsid:itis.gov:itis_tsn:%d", n), true
}
