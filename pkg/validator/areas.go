package validator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// Areas returns the area ids declared in areas.txt in file order
func Areas(ctx context.Context, feedRoot string, sink diagnostics.Sink) (*gtfs.IDSet, error) {
	areasPath := filepath.Join(feedRoot, gtfs.AreasFile)
	areas := gtfs.NewIDSet()

	if !gtfs.Exists(areasPath) {
		sink.AddWarning(diagnostics.Format(diagnostics.NoAreas, "", 0, ""))
		return areas, nil
	}

	err := gtfs.ReadFile(ctx, areasPath, []string{gtfs.FieldAreaID}, []string{gtfs.FieldAreaName}, sink, func(row *gtfs.Row) error {
		areaID := row.String(gtfs.FieldAreaID)
		if areaID == "" {
			row.AddError(diagnostics.EmptyAreaID, "")
			return nil
		}

		if !areas.Add(areaID) {
			row.AddError(diagnostics.DuplicateAreaID, fmt.Sprintf("area_id: %s", areaID))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read areas: %w", err)
	}

	return areas, nil
}
