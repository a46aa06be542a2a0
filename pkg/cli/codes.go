package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
)

func newCodesCommand() *Command {
	fs := flag.NewFlagSet("codes", flag.ExitOnError)
	format := fs.String("format", formatText, "Output format: text, json")

	return &Command{
		Name:        "codes",
		Description: "List diagnostic codes",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runCodes(*format, os.Stdout)
		},
	}
}

func runCodes(format string, w io.Writer) error {
	catalog := diagnostics.Catalog()

	if format == formatJSON {
		return diagnostics.WriteJSON(w, catalog)
	}

	fmt.Fprintf(w, "Diagnostic codes (%d):\n\n", len(catalog))
	for _, def := range catalog {
		fmt.Fprintf(w, "  %-32s [%s]\n    %s\n", def.Code, def.Severity, def.Message)
	}
	return nil
}
