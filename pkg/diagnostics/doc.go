// Package diagnostics defines the findings produced while validating a feed.
//
// # Overview
//
// Validators never fail on bad data. Every problem they find becomes a
// Diagnostic written to a Sink: a warning when a whole input is missing or an
// aggregate condition holds after a scan, an error when a single row violates
// a field constraint.
//
// # Codes
//
// Each Code has a fixed severity and message template in the catalog:
//
//	diagnostics.NoRoutes            // warning
//	diagnostics.DuplicateServiceID  // error
//	diagnostics.UndefinedArea       // error
//
// # Usage Example
//
//	collector := diagnostics.NewCollector()
//	sink := diagnostics.NewFilter(collector, diagnostics.UnusedAreasInStops)
//
//	sink.AddWarning(diagnostics.Format(diagnostics.NoStops, "", 0, ""))
//
//	summary := collector.Summary()
//	fmt.Printf("%d errors, %d warnings\n", summary.Errors, summary.Warnings)
//
// # Output
//
// WriteText, WriteJSON and WriteGitHub render collected diagnostics for
// terminals, tooling and GitHub Actions annotations respectively.
package diagnostics
