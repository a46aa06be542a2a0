package gtfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

func writeFeedFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, StopsFile, "stop_id\n")

	assert.True(t, Exists(path))
	assert.False(t, Exists(filepath.Join(dir, RoutesFile)))
	assert.False(t, Exists(dir), "directories are not feed files")
}

func TestOpen_HeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, CalendarFile, "\xEF\xBB\xBFservice_id , monday\nWEEK,1\nSAT,0\n")

	sink := diagnostics.NewCollector()
	r, err := Open(path, []string{FieldServiceID}, nil, sink)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, CalendarFile, r.Name())
	assert.Equal(t, []string{"service_id", "monday"}, r.Fields())
	assert.True(t, r.HasField(FieldServiceID))

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, row.Line())
	assert.Equal(t, "WEEK", row.String(FieldServiceID))

	// monday is in the header but was not declared
	_, ok := row.Value("monday")
	assert.False(t, ok)

	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, row.Line())
	assert.Equal(t, "SAT", row.String(FieldServiceID))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, sink.Len())
}

func TestOpen_QuotingQuirks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    [][2]string
	}{
		{
			name:    "bare quote in unquoted field",
			content: "route_id,network_id\nR1,The \"A\" Line\n",
			want:    [][2]string{{"R1", `The "A" Line`}},
		},
		{
			name:    "apostrophe and quotes",
			content: "route_id,network_id\nR1,Joe's \"special\"\nR2,metro\n",
			want:    [][2]string{{"R1", `Joe's "special"`}, {"R2", "metro"}},
		},
		{
			name:    "quoted field with comma",
			content: "route_id,network_id\n\"R1,express\",metro\n",
			want:    [][2]string{{"R1,express", "metro"}},
		},
		{
			name:    "quoted field with newline",
			content: "route_id,network_id\n\"R1\nnight\",metro\nR2,bus\n",
			want:    [][2]string{{"R1\nnight", "metro"}, {"R2", "bus"}},
		},
		{
			name:    "doubled quote inside quoted field",
			content: "route_id,network_id\n\"R\"\"1\",metro\n",
			want:    [][2]string{{`R"1`, "metro"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFeedFile(t, t.TempDir(), RoutesFile, tt.content)
			sink := diagnostics.NewCollector()

			var got [][2]string
			err := ReadFile(context.Background(), path, []string{"route_id"}, []string{FieldNetworkID}, sink, func(row *Row) error {
				got = append(got, [2]string{row.String("route_id"), row.String(FieldNetworkID)})
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, sink.Len())
		})
	}
}

func TestOpen_MissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, CalendarDatesFile, "date,exception_type\n20240101,1\n")

	sink := diagnostics.NewCollector()
	r, err := Open(path, []string{FieldServiceID}, nil, sink)
	require.NoError(t, err)
	defer r.Close()

	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.MissingRequiredColumn, errs[0].Code)
	assert.Equal(t, CalendarDatesFile, errs[0].File)
	assert.Equal(t, "service_id", errs[0].Context)

	row, err := r.Next()
	require.NoError(t, err)
	v, ok := row.Value(FieldServiceID)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestReader_ShortRowIsReportedAndYielded(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, AreasFile, "area_name,area_id\nDowntown\n")

	sink := diagnostics.NewCollector()
	var rows []*Row
	err := ReadFile(context.Background(), path, []string{FieldAreaID}, []string{FieldAreaName}, sink, func(row *Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Downtown", rows[0].String(FieldAreaName))
	_, ok := rows[0].Value(FieldAreaID)
	assert.False(t, ok)

	errs := sink.WithCode(diagnostics.MissingRequiredField)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, "area_id", errs[0].Context)
}

func TestReader_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, CalendarFile, "")

	sink := diagnostics.NewCollector()
	r, err := Open(path, []string{FieldServiceID}, nil, sink)
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, r.Fields())
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, sink.Len())
}

func TestReadFile_MissingFile(t *testing.T) {
	called := false
	err := ReadFile(context.Background(), filepath.Join(t.TempDir(), CalendarFile), []string{FieldServiceID}, nil,
		diagnostics.NewCollector(), func(*Row) error {
			called = true
			return nil
		})

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestReadFile_UnreadableFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RoutesFile)
	require.NoError(t, os.Mkdir(path, 0755))

	err := ReadFile(context.Background(), path, nil, []string{FieldNetworkID}, diagnostics.NewCollector(), func(*Row) error {
		return nil
	})
	require.Error(t, err)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, path, readErr.Path)
	assert.Contains(t, err.Error(), "reading")
}

func TestReadFile_UnterminatedQuoteIsData(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, RoutesFile, "route_id,network_id\nR1,\"unterminated\nR2,N1\n")

	var ids []string
	err := ReadFile(context.Background(), path, []string{"route_id"}, []string{FieldNetworkID}, diagnostics.NewCollector(), func(row *Row) error {
		ids = append(ids, row.String("route_id"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1"}, ids)
}

func TestReadFile_CallbackErrorStopsScan(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, CalendarFile, "service_id\nA\nB\nC\n")

	stop := errors.New("stop")
	seen := 0
	err := ReadFile(context.Background(), path, []string{FieldServiceID}, nil, diagnostics.NewCollector(), func(*Row) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestReadFile_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, CalendarFile, "service_id\nA\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ReadFile(ctx, path, []string{FieldServiceID}, nil, diagnostics.NewCollector(), func(*Row) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRow_AddWarning(t *testing.T) {
	dir := t.TempDir()
	path := writeFeedFile(t, dir, StopsFile, "stop_id,area_id\nS1,A\n")

	sink := diagnostics.NewCollector()
	err := ReadFile(context.Background(), path, nil, []string{FieldAreaID}, sink, func(row *Row) error {
		row.AddWarning(diagnostics.UnusedAreasInStops, "ctx")
		return nil
	})
	require.NoError(t, err)

	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, StopsFile, warnings[0].File)
	assert.Equal(t, 2, warnings[0].Line)
}
