package validator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// Networks returns the distinct network ids declared in routes.txt in
// first-seen order. A feed without routes.txt gets a NoRoutes warning; a
// routes.txt without a network_id column yields no networks and no
// diagnostic.
func Networks(ctx context.Context, feedRoot string, sink diagnostics.Sink) ([]string, error) {
	routesPath := filepath.Join(feedRoot, gtfs.RoutesFile)

	if !gtfs.Exists(routesPath) {
		sink.AddWarning(diagnostics.Format(diagnostics.NoRoutes, "", 0, ""))
		return []string{}, nil
	}

	networks := gtfs.NewIDSet()
	err := gtfs.Scan(ctx, routesPath, nil, []string{gtfs.FieldNetworkID}, sink, func(r *gtfs.Reader) error {
		if !r.HasField(gtfs.FieldNetworkID) {
			return nil
		}

		for row, err := range r.Rows() {
			if err != nil {
				return err
			}
			if networkID := row.String(gtfs.FieldNetworkID); networkID != "" {
				networks.Add(networkID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read networks: %w", err)
	}

	return networks.Values(), nil
}
