package validator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// Entity labels attached to UndefinedArea diagnostics
const (
	EntityStop     = "stop"
	EntityStopTime = "stop_time"
)

// CheckStopAreas verifies that every known area is referenced by stops.txt
// or, when includeStopTimes is set, stop_times.txt. References to unknown
// areas are reported per row; areas nobody references are reported once as
// an UnusedAreasInStops warning listing them in knownAreas order.
func CheckStopAreas(ctx context.Context, feedRoot string, knownAreas *gtfs.IDSet, sink diagnostics.Sink, includeStopTimes bool) error {
	stopsPath := filepath.Join(feedRoot, gtfs.StopsFile)
	stopTimesPath := filepath.Join(feedRoot, gtfs.StopTimesFile)

	stopsExists := gtfs.Exists(stopsPath)
	stopTimesExists := false
	if includeStopTimes {
		stopTimesExists = gtfs.Exists(stopTimesPath)
	}

	if !stopsExists {
		sink.AddWarning(diagnostics.Format(diagnostics.NoStops, "", 0, ""))
	}

	if knownAreas == nil {
		knownAreas = gtfs.NewIDSet()
	}
	unusedAreas := knownAreas.Clone()

	if stopsExists {
		if err := gtfs.ScanAreas(ctx, stopsPath, EntityStop, knownAreas, unusedAreas, sink); err != nil {
			return fmt.Errorf("failed to check areas of stops: %w", err)
		}
	}
	if stopTimesExists {
		if err := gtfs.ScanAreas(ctx, stopTimesPath, EntityStopTime, knownAreas, unusedAreas, sink); err != nil {
			return fmt.Errorf("failed to check areas of stop times: %w", err)
		}
	}

	if unusedAreas.Len() > 0 {
		sink.AddWarning(diagnostics.Format(diagnostics.UnusedAreasInStops, "", 0,
			fmt.Sprintf("Unused areas: %v", unusedAreas.Values())))
	}

	return nil
}
