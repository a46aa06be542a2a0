// Package validator checks referential consistency across the files of a
// transit feed.
//
// Each validator reads one or two files, builds a registry of declared
// identifiers and reports problems to a diagnostics.Sink instead of
// failing. Only I/O and CSV syntax errors are returned as errors.
//
//	engine := validator.NewEngine(validator.DefaultConfig())
//	result, err := engine.Validate(ctx, "/path/to/feed")
//	if err != nil {
//		return err
//	}
//	for _, d := range result.Diagnostics {
//		fmt.Println(d)
//	}
//
// Per-feed behaviour is configured by fares-validator.yaml in the feed root.
package validator
