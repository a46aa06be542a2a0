package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

func TestAreas(t *testing.T) {
	ctx := context.Background()

	t.Run("missing areas file", func(t *testing.T) {
		sink := diagnostics.NewCollector()

		areas, err := Areas(ctx, writeFeed(t, nil), sink)
		require.NoError(t, err)
		assert.Zero(t, areas.Len())

		require.Equal(t, 1, sink.Len())
		assert.Equal(t, diagnostics.NoAreas, sink.Diagnostics()[0].Code)
	})

	t.Run("duplicates and empty ids", func(t *testing.T) {
		feed := writeFeed(t, map[string]string{
			gtfs.AreasFile: "area_id,area_name\nA,Zone A\n,Nowhere\nB,Zone B\nA,Again\n",
		})
		sink := diagnostics.NewCollector()

		areas, err := Areas(ctx, feed, sink)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, areas.Values())

		empty := sink.WithCode(diagnostics.EmptyAreaID)
		require.Len(t, empty, 1)
		assert.Equal(t, 3, empty[0].Line)

		dups := sink.WithCode(diagnostics.DuplicateAreaID)
		require.Len(t, dups, 1)
		assert.Equal(t, "area_id: A", dups[0].Context)
		assert.Equal(t, 5, dups[0].Line)
	})
}
