package gtfs

import (
	"context"
	"fmt"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

// ScanAreas checks the area references in path. References to areas not in
// known are reported as UndefinedArea tagged with entityType; references to
// known areas are removed from unused. Files without an area_id column are
// ignored.
func ScanAreas(ctx context.Context, path, entityType string, known, unused *IDSet, sink diagnostics.Sink) error {
	return Scan(ctx, path, nil, []string{FieldAreaID}, sink, func(r *Reader) error {
		if !r.HasField(FieldAreaID) {
			return nil
		}

		for row, err := range r.Rows() {
			if err != nil {
				return err
			}

			areaID := row.String(FieldAreaID)
			if areaID == "" {
				continue
			}

			if !known.Has(areaID) {
				d := row.Diagnostic(diagnostics.UndefinedArea, fmt.Sprintf("area_id: %s", areaID))
				sink.AddError(d.WithEntity(entityType))
				continue
			}

			unused.Remove(areaID)
		}
		return nil
	})
}
