package diagnostics

import "sort"

// Code identifies a kind of finding
type Code string

// Severity indicates how serious a diagnostic is
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Missing-input and aggregate warnings
const (
	NoRoutes           Code = "NO_ROUTES"
	NoStops            Code = "NO_STOPS"
	NoServiceIDs       Code = "NO_SERVICE_IDS"
	NoAreas            Code = "NO_AREAS"
	UnusedAreasInStops Code = "UNUSED_AREAS_IN_STOPS"
)

// Row-level errors
const (
	EmptyServiceIDCalendar      Code = "EMPTY_SERVICE_ID_CALENDAR"
	EmptyServiceIDCalendarDates Code = "EMPTY_SERVICE_ID_CALENDAR_DATES"
	DuplicateServiceID          Code = "DUPLICATE_SERVICE_ID"
	EmptyAreaID                 Code = "EMPTY_AREA_ID"
	DuplicateAreaID             Code = "DUPLICATE_AREA_ID"
	UndefinedArea               Code = "UNDEFINED_AREA"
	MissingRequiredColumn       Code = "MISSING_REQUIRED_COLUMN"
	MissingRequiredField        Code = "MISSING_REQUIRED_FIELD"
)

// Definition describes a catalog entry
type Definition struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

var catalog = map[Code]Definition{
	NoRoutes: {
		Code:     NoRoutes,
		Severity: SeverityWarning,
		Message:  "No routes.txt was found, network ids cannot be checked",
	},
	NoStops: {
		Code:     NoStops,
		Severity: SeverityWarning,
		Message:  "No stops.txt was found, stop areas cannot be checked",
	},
	NoServiceIDs: {
		Code:     NoServiceIDs,
		Severity: SeverityWarning,
		Message:  "Neither calendar.txt nor calendar_dates.txt was found, service ids cannot be checked",
	},
	NoAreas: {
		Code:     NoAreas,
		Severity: SeverityWarning,
		Message:  "No areas.txt was found, area references cannot be checked",
	},
	UnusedAreasInStops: {
		Code:     UnusedAreasInStops,
		Severity: SeverityWarning,
		Message:  "Areas defined in areas.txt are not referenced by any stop or stop time",
	},
	EmptyServiceIDCalendar: {
		Code:     EmptyServiceIDCalendar,
		Severity: SeverityError,
		Message:  "A row in calendar.txt has an empty service_id",
	},
	EmptyServiceIDCalendarDates: {
		Code:     EmptyServiceIDCalendarDates,
		Severity: SeverityError,
		Message:  "A row in calendar_dates.txt has an empty service_id",
	},
	DuplicateServiceID: {
		Code:     DuplicateServiceID,
		Severity: SeverityError,
		Message:  "A service_id is defined more than once in calendar.txt",
	},
	EmptyAreaID: {
		Code:     EmptyAreaID,
		Severity: SeverityError,
		Message:  "A row in areas.txt has an empty area_id",
	},
	DuplicateAreaID: {
		Code:     DuplicateAreaID,
		Severity: SeverityError,
		Message:  "An area_id is defined more than once in areas.txt",
	},
	UndefinedArea: {
		Code:     UndefinedArea,
		Severity: SeverityError,
		Message:  "An area_id is referenced that is not defined in areas.txt",
	},
	MissingRequiredColumn: {
		Code:     MissingRequiredColumn,
		Severity: SeverityError,
		Message:  "A required column is missing from the file header",
	},
	MissingRequiredField: {
		Code:     MissingRequiredField,
		Severity: SeverityError,
		Message:  "A row has fewer fields than the header and lacks a required field",
	},
}

// Lookup returns the catalog definition for a code
func Lookup(code Code) (Definition, bool) {
	def, ok := catalog[code]
	return def, ok
}

// Catalog returns every known definition sorted by code
func Catalog() []Definition {
	defs := make([]Definition, 0, len(catalog))
	for _, def := range catalog {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Code < defs[j].Code
	})
	return defs
}

// Message returns the template message for a code, or the code itself when
// it is not in the catalog.
func (c Code) Message() string {
	if def, ok := catalog[c]; ok {
		return def.Message
	}
	return string(c)
}
