package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

// WriteText writes a human readable listing of diags for one feed followed by
// a summary.
func WriteText(w io.Writer, feedRoot string, diags []Diagnostic) error {
	if len(diags) > 0 {
		if _, err := fmt.Fprintf(w, "\n%s:\n", feedRoot); err != nil {
			return err
		}
	}

	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "  %s\n", d.String()); err != nil {
			return err
		}
	}

	summary := Summarize(diags)
	_, err := fmt.Fprintf(w, "\nSummary:\n  Diagnostics: %d\n  Errors:      %d\n  Warnings:    %d\n",
		summary.Total, summary.Errors, summary.Warnings)
	return err
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteGitHub writes diags as GitHub Actions workflow annotations
//
//	::error file={name},line={line}::[{code}] {message}
func WriteGitHub(w io.Writer, feedRoot string, diags []Diagnostic) error {
	for _, d := range diags {
		level := "error"
		if d.Severity == SeverityWarning {
			level = "warning"
		}

		file := feedRoot
		if d.File != "" {
			file = filepath.Join(feedRoot, d.File)
		}

		message := d.Message
		if d.Context != "" {
			message = fmt.Sprintf("%s (%s)", message, d.Context)
		}

		var err error
		if d.Line > 0 {
			_, err = fmt.Fprintf(w, "::%s file=%s,line=%d::[%s] %s\n", level, file, d.Line, d.Code, message)
		} else {
			_, err = fmt.Fprintf(w, "::%s file=%s::[%s] %s\n", level, file, d.Code, message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
