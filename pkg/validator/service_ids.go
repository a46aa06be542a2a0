package validator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// ServiceIDs returns the service ids declared by calendar.txt, extended by
// any new ids in calendar_dates.txt.
//
// Empty ids are reported per file and skipped. A repeated id in calendar.txt
// is reported as DuplicateServiceID and the first occurrence is kept. Ids
// repeated in calendar_dates.txt are merged silently.
func ServiceIDs(ctx context.Context, feedRoot string, sink diagnostics.Sink) ([]string, error) {
	calendarPath := filepath.Join(feedRoot, gtfs.CalendarFile)
	calendarDatesPath := filepath.Join(feedRoot, gtfs.CalendarDatesFile)

	if !gtfs.Exists(calendarPath) && !gtfs.Exists(calendarDatesPath) {
		sink.AddWarning(diagnostics.Format(diagnostics.NoServiceIDs, "", 0, ""))
		return []string{}, nil
	}

	serviceIDs := gtfs.NewIDSet()
	required := []string{gtfs.FieldServiceID}

	err := gtfs.ReadFile(ctx, calendarPath, required, nil, sink, func(row *gtfs.Row) error {
		serviceID := row.String(gtfs.FieldServiceID)
		if serviceID == "" {
			row.AddError(diagnostics.EmptyServiceIDCalendar, "")
			return nil
		}

		if !serviceIDs.Add(serviceID) {
			row.AddError(diagnostics.DuplicateServiceID, fmt.Sprintf("service_id: %s", serviceID))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}

	err = gtfs.ReadFile(ctx, calendarDatesPath, required, nil, sink, func(row *gtfs.Row) error {
		serviceID := row.String(gtfs.FieldServiceID)
		if serviceID == "" {
			row.AddError(diagnostics.EmptyServiceIDCalendarDates, "")
			return nil
		}

		serviceIDs.Add(serviceID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar dates: %w", err)
	}

	return serviceIDs.Values(), nil
}
