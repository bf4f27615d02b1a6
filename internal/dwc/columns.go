package dwc

// Source column names expected on the three input tables. The extraction
// collaborator documents these as the minimum column set.
const (
	ColCruise      = "cruise"
	ColStation     = "station"
	ColTime        = "time"
	ColLatitude    = "latitude"
	ColLongitude   = "longitude"
	ColEndLatitude = "end_latitude"
	ColEndLongitud = "end_longitude"
	ColDepthMin    = "depth_min"
	ColDepthMax    = "depth_max"
	ColTowDuration = "tow_duration_minutes"

	ColSpeciesCommonName = "species_common_name"
	ColSizeClass         = "size_class"
	ColTotalWeight       = "total_weight"
	ColTotalCount        = "total_count"
	ColMeanLength        = "mean_length"
	ColStdLength         = "std_length"
	ColLengthType        = "length_type"

	ColScientificName = "species_scientific_name"
	ColITISTSN        = "ITIS_tsn"
)

// EventColumns is the fixed output column order of the Event core table.
// The identifier must stay first: the packager uses it as the core key.
var EventColumns = []string{
	"eventID",
	"parentEventID",
	"eventDate",
	"decimalLatitude",
	"decimalLongitude",
	"footprintWKT",
	"geodeticDatum",
	"coordinateUncertaintyInMeters",
	"minimumDepthInMeters",
	"maximumDepthInMeters",
	"samplingProtocol",
	"sampleSizeValue",
	"sampleSizeUnit",
	"eventRemarks",
}

// OccurrenceColumns is the fixed output column order of the Occurrence
// extension. eventID sits at index 1, the linking column for the packager.
var OccurrenceColumns = []string{
	"occurrenceID",
	"eventID",
	"basisOfRecord",
	"occurrenceStatus",
	"vernacularName",
	"scientificName",
	"scientificNameID",
	"taxonRank",
	"kingdom",
	"individualCount",
	"organismQuantity",
	"organismQuantityType",
	"occurrenceRemarks",
}

// MeasurementColumns is the fixed output column order of the
// ExtendedMeasurementOrFact extension. occurrenceID leads so downstream
// consumers recognize it as the extension's occurrence link; eventID sits at
// index 1 for the packager's core linking logic.
var MeasurementColumns = []string{
	"occurrenceID",
	"eventID",
	"measurementID",
	"measurementType",
	"measurementValue",
	"measurementUnit",
	"measurementTypeID",
	"measurementValueID",
	"measurementAccuracy",
	"measurementDeterminedDate",
	"measurementDeterminedBy",
	"measurementMethod",
	"measurementRemarks",
}

// TermURI maps output column names to their Darwin Core term URIs for the
// archive descriptor.
var TermURI = map[string]string{
	"eventID":                       "http://rs.tdwg.org/dwc/terms/eventID",
	"parentEventID":                 "http://rs.tdwg.org/dwc/terms/parentEventID",
	"eventDate":                     "http://rs.tdwg.org/dwc/terms/eventDate",
	"decimalLatitude":               "http://rs.tdwg.org/dwc/terms/decimalLatitude",
	"decimalLongitude":              "http://rs.tdwg.org/dwc/terms/decimalLongitude",
	"footprintWKT":                  "http://rs.tdwg.org/dwc/terms/footprintWKT",
	"geodeticDatum":                 "http://rs.tdwg.org/dwc/terms/geodeticDatum",
	"coordinateUncertaintyInMeters": "http://rs.tdwg.org/dwc/terms/coordinateUncertaintyInMeters",
	"minimumDepthInMeters":          "http://rs.tdwg.org/dwc/terms/minimumDepthInMeters",
	"maximumDepthInMeters":          "http://rs.tdwg.org/dwc/terms/maximumDepthInMeters",
	"samplingProtocol":              "http://rs.tdwg.org/dwc/terms/samplingProtocol",
	"sampleSizeValue":               "http://rs.tdwg.org/dwc/terms/sampleSizeValue",
	"sampleSizeUnit":                "http://rs.tdwg.org/dwc/terms/sampleSizeUnit",
	"eventRemarks":                  "http://rs.tdwg.org/dwc/terms/eventRemarks",
	"occurrenceID":                  "http://rs.tdwg.org/dwc/terms/occurrenceID",
	"basisOfRecord":                 "http://rs.tdwg.org/dwc/terms/basisOfRecord",
	"occurrenceStatus":              "http://rs.tdwg.org/dwc/terms/occurrenceStatus",
	"vernacularName":                "http://rs.tdwg.org/dwc/terms/vernacularName",
	"scientificName":                "http://rs.tdwg.org/dwc/terms/scientificName",
	"scientificNameID":              "http://rs.tdwg.org/dwc/terms/scientificNameID",
	"taxonRank":                     "http://rs.tdwg.org/dwc/terms/taxonRank",
	"kingdom":                       "http://rs.tdwg.org/dwc/terms/kingdom",
	"individualCount":               "http://rs.tdwg.org/dwc/terms/individualCount",
	"organismQuantity":              "http://rs.tdwg.org/dwc/terms/organismQuantity",
	"organismQuantityType":          "http://rs.tdwg.org/dwc/terms/organismQuantityType",
	"occurrenceRemarks":             "http://rs.tdwg.org/dwc/terms/occurrenceRemarks",
	"measurementID":                 "http://rs.tdwg.org/dwc/terms/measurementID",
	"measurementType":               "http://rs.tdwg.org/dwc/terms/measurementType",
	"measurementValue":              "http://rs.tdwg.org/dwc/terms/measurementValue",
	"measurementUnit":               "http://rs.tdwg.org/dwc/terms/measurementUnit",
	"measurementTypeID":             "http://rs.tdwg.org/dwc/terms/measurementTypeID",
	"measurementValueID":            "http://rs.tdwg.org/dwc/terms/measurementValueID",
	"measurementAccuracy":           "http://rs.tdwg.org/dwc/terms/measurementAccuracy",
	"measurementDeterminedDate":     "http://rs.tdwg.org/dwc/terms/measurementDeterminedDate",
	"measurementDeterminedBy":       "http://rs.tdwg.org/dwc/terms/measurementDeterminedBy",
	"measurementMethod":             "http://rs.tdwg.org/dwc/terms/measurementMethod",
	"measurementRemarks":            "http://rs.tdwg.org/dwc/terms/measurementRemarks",
}
