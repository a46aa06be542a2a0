package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// cleanFeed has no diagnostics
func cleanFeed(t *testing.T) string {
	return writeFeedFiles(t, map[string]string{
		gtfs.AreasFile:    "area_id\nA\n",
		gtfs.StopsFile:    "stop_id,area_id\nS1,A\n",
		gtfs.RoutesFile:   "route_id,network_id\nR1,metro\n",
		gtfs.CalendarFile: "service_id\nWEEK\n",
	})
}

// brokenFeed has one UNDEFINED_AREA error
func brokenFeed(t *testing.T) string {
	return writeFeedFiles(t, map[string]string{
		gtfs.AreasFile:    "area_id\nA\n",
		gtfs.StopsFile:    "stop_id,area_id\nS1,A\nS2,Z\n",
		gtfs.RoutesFile:   "route_id,network_id\nR1,metro\n",
		gtfs.CalendarFile: "service_id\nWEEK\n",
	})
}

// warningFeed has one NO_SERVICE_IDS warning
func warningFeed(t *testing.T) string {
	return writeFeedFiles(t, map[string]string{
		gtfs.AreasFile:  "area_id\nA\n",
		gtfs.StopsFile:  "stop_id,area_id\nS1,A\n",
		gtfs.RoutesFile: "route_id,network_id\nR1,metro\n",
	})
}

func writeFeedFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}
