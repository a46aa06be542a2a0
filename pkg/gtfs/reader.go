package gtfs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

var readerTracer = otel.Tracer("fares-validator/gtfs/reader")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadError reports a failure to read the underlying file. Unlike data
// problems, which become diagnostics, it aborts the scan.
type ReadError struct {
	Path string
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("reading %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Reader streams the rows of one delimited feed file
type Reader struct {
	path     string
	name     string
	file     *os.File
	csv      *csv.Reader
	fields   []string
	index    map[string]int
	declared map[string]bool
	required []string
	sink     diagnostics.Sink
}

// Open opens path and parses its header. Required columns missing from the
// header are reported to sink once. Only required and optional fields are
// exposed on rows.
func Open(path string, required, optional []string, sink diagnostics.Sink) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	br := bufio.NewReader(f)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			f.Close()
			return nil, &ReadError{Path: path, Err: err}
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	// Stray quotes are data, kept as literal text
	cr.LazyQuotes = true

	r := &Reader{
		path:     path,
		name:     filepath.Base(path),
		file:     f,
		csv:      cr,
		index:    make(map[string]int),
		declared: make(map[string]bool, len(required)+len(optional)),
		required: required,
		sink:     sink,
	}
	for _, name := range required {
		r.declared[name] = true
	}
	for _, name := range optional {
		r.declared[name] = true
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		// empty file, no header and no rows
		return r, nil
	}
	if err != nil {
		f.Close()
		return nil, r.readError(err)
	}

	r.fields = make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		r.fields[i] = name
		if _, dup := r.index[name]; !dup {
			r.index[name] = i
		}
	}

	for _, name := range required {
		if _, ok := r.index[name]; !ok {
			sink.AddError(diagnostics.Format(diagnostics.MissingRequiredColumn, r.name, 1, name))
		}
	}

	return r, nil
}

func (r *Reader) readError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &ReadError{Path: r.path, Line: parseErr.Line, Err: parseErr.Err}
	}
	return &ReadError{Path: r.path, Err: err}
}

// Name returns the base name of the file
func (r *Reader) Name() string {
	return r.name
}

// Fields returns the header columns in file order
func (r *Reader) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// HasField reports whether the header contains name
func (r *Reader) HasField(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Next returns the next row, or io.EOF when the file is exhausted. A row
// shorter than the header that lacks a required field is reported and still
// returned.
func (r *Reader) Next() (*Row, error) {
	if r.fields == nil {
		return nil, io.EOF
	}

	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, r.readError(err)
	}

	line, _ := r.csv.FieldPos(0)
	row := &Row{reader: r, record: record, line: line}

	for _, name := range r.required {
		if idx, ok := r.index[name]; ok && idx >= len(record) {
			row.AddError(diagnostics.MissingRequiredField, name)
		}
	}

	return row, nil
}

// Rows iterates over the remaining rows. Iteration stops after the first
// error is yielded.
func (r *Reader) Rows() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying file
func (r *Reader) Close() error {
	return r.file.Close()
}

// Row is one record of a feed file
type Row struct {
	reader *Reader
	record []string
	line   int
}

// Line returns the 1-based line number of the row
func (row *Row) Line() int {
	return row.line
}

// Value returns the value of a declared field. It reports false when the
// field was not declared, is not in the header, or is missing from the row.
func (row *Row) Value(name string) (string, bool) {
	if !row.reader.declared[name] {
		return "", false
	}
	idx, ok := row.reader.index[name]
	if !ok || idx >= len(row.record) {
		return "", false
	}
	return row.record[idx], true
}

// String returns the value of a declared field or "" when absent
func (row *Row) String(name string) string {
	v, _ := row.Value(name)
	return v
}

// Diagnostic builds a diagnostic located at this row
func (row *Row) Diagnostic(code diagnostics.Code, context string) diagnostics.Diagnostic {
	return diagnostics.Format(code, row.reader.name, row.line, context)
}

// AddError reports an error located at this row
func (row *Row) AddError(code diagnostics.Code, context string) {
	row.reader.sink.AddError(row.Diagnostic(code, context))
}

// AddWarning reports a warning located at this row
func (row *Row) AddWarning(code diagnostics.Code, context string) {
	row.reader.sink.AddWarning(row.Diagnostic(code, context))
}

// Scan opens path, passes the reader to fn and closes it afterwards. A
// missing file is not an error: fn is not called.
func Scan(ctx context.Context, path string, required, optional []string, sink diagnostics.Sink, fn func(*Reader) error) error {
	ctx, span := readerTracer.Start(ctx, "gtfs.Scan",
		trace.WithAttributes(attribute.String("gtfs.file", filepath.Base(path))),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := Open(path, required, optional, sink)
	if errors.Is(err, fs.ErrNotExist) {
		span.SetAttributes(attribute.Bool("gtfs.file_exists", false))
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open file")
		return err
	}
	defer r.Close()

	if err := fn(r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return err
	}
	return nil
}

// ReadFile calls fn for every row of path. A missing file yields no rows.
func ReadFile(ctx context.Context, path string, required, optional []string, sink diagnostics.Sink, fn func(*Row) error) error {
	return Scan(ctx, path, required, optional, sink, func(r *Reader) error {
		for row, err := range r.Rows() {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	})
}
