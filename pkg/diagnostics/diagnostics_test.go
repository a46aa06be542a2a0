package diagnostics

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	d := Format(DuplicateServiceID, "calendar.txt", 3, "service_id: S1")

	assert.Equal(t, DuplicateServiceID, d.Code)
	assert.Equal(t, "A service_id is defined more than once in calendar.txt", d.Message)
	assert.Equal(t, "calendar.txt", d.File)
	assert.Equal(t, 3, d.Line)
	assert.Equal(t, "service_id: S1", d.Context)
	assert.Empty(t, d.Severity)
}

func TestCodeMessage_Unknown(t *testing.T) {
	assert.Equal(t, "SOMETHING_ELSE", Code("SOMETHING_ELSE").Message())
}

func TestCatalog(t *testing.T) {
	defs := Catalog()
	require.NotEmpty(t, defs)

	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Code, defs[i].Code, "catalog should be sorted")
	}

	def, ok := Lookup(NoServiceIDs)
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, def.Severity)

	def, ok = Lookup(UndefinedArea)
	require.True(t, ok)
	assert.Equal(t, SeverityError, def.Severity)

	_, ok = Lookup("NOPE")
	assert.False(t, ok)
}

func TestDiagnostic_String(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "file level warning",
			d:    Diagnostic{Code: NoStops, Severity: SeverityWarning, Message: "no stops"},
			want: "warning NO_STOPS: no stops",
		},
		{
			name: "row error with entity and context",
			d: Diagnostic{
				Code:     UndefinedArea,
				Severity: SeverityError,
				Message:  "undefined",
				File:     "stops.txt",
				Line:     4,
				Entity:   "stop",
				Context:  "area_id: Z",
			},
			want: "stops.txt:4: error UNDEFINED_AREA: undefined [stop] (area_id: Z)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.String())
		})
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	c.AddWarning(Format(NoRoutes, "", 0, ""))
	c.AddError(Format(EmptyServiceIDCalendar, "calendar.txt", 2, ""))
	c.AddError(Format(DuplicateServiceID, "calendar.txt", 3, "service_id: S1"))

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.HasErrors())
	assert.Len(t, c.Errors(), 2)
	assert.Len(t, c.Warnings(), 1)
	assert.Len(t, c.WithCode(DuplicateServiceID), 1)

	diags := c.Diagnostics()
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, SeverityError, diags[1].Severity)

	// Returned slices are copies
	diags[0].Code = "CHANGED"
	assert.Equal(t, NoRoutes, c.Diagnostics()[0].Code)

	summary := c.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, 1, summary.Warnings)
	assert.Equal(t, 1, summary.ByCode[NoRoutes])
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.AddError(Format(UndefinedArea, "stops.txt", j, ""))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, c.Len())
}

func TestFilter(t *testing.T) {
	c := NewCollector()
	f := NewFilter(c, UnusedAreasInStops, DuplicateServiceID)

	f.AddWarning(Format(UnusedAreasInStops, "", 0, "Unused areas: [A]"))
	f.AddError(Format(DuplicateServiceID, "calendar.txt", 2, ""))
	f.AddWarning(Format(NoRoutes, "", 0, ""))
	f.AddError(Format(UndefinedArea, "stops.txt", 2, ""))

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, NoRoutes, diags[0].Code)
	assert.Equal(t, UndefinedArea, diags[1].Code)
}

func TestWriteText(t *testing.T) {
	c := NewCollector()
	c.AddWarning(Format(NoRoutes, "", 0, ""))
	c.AddError(Format(DuplicateServiceID, "calendar.txt", 3, "service_id: S1"))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, "feeds/metro", c.Diagnostics()))

	out := buf.String()
	assert.Contains(t, out, "feeds/metro:")
	assert.Contains(t, out, "calendar.txt:3: error DUPLICATE_SERVICE_ID")
	assert.Contains(t, out, "Errors:      1")
	assert.Contains(t, out, "Warnings:    1")
}

func TestWriteGitHub(t *testing.T) {
	c := NewCollector()
	c.AddWarning(Format(NoStops, "", 0, ""))
	c.AddError(Format(UndefinedArea, "stops.txt", 7, "area_id: Z"))

	var buf bytes.Buffer
	require.NoError(t, WriteGitHub(&buf, "feed", c.Diagnostics()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "::warning file=feed::[NO_STOPS] No stops.txt was found, stop areas cannot be checked", string(lines[0]))
	assert.Equal(t, "::error file=feed/stops.txt,line=7::[UNDEFINED_AREA] An area_id is referenced that is not defined in areas.txt (area_id: Z)", string(lines[1]))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []Diagnostic{Format(NoAreas, "", 0, "")}))
	assert.Contains(t, buf.String(), `"code": "NO_AREAS"`)
}
