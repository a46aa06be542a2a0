// Package gtfs reads the delimited text files of a transit feed.
package gtfs

import "os"

// Feed file names
const (
	RoutesFile        = "routes.txt"
	StopsFile         = "stops.txt"
	StopTimesFile     = "stop_times.txt"
	CalendarFile      = "calendar.txt"
	CalendarDatesFile = "calendar_dates.txt"
	AreasFile         = "areas.txt"
)

// Field names referenced across files
const (
	FieldNetworkID = "network_id"
	FieldServiceID = "service_id"
	FieldAreaID    = "area_id"
	FieldAreaName  = "area_name"
)

// KnownFiles lists every file the validators read
var KnownFiles = []string{
	AreasFile,
	CalendarFile,
	CalendarDatesFile,
	RoutesFile,
	StopTimesFile,
	StopsFile,
}

// Exists reports whether path names a regular file
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
