// Command dms2csv converts a DMS survey listing into the segment table.
// Reads from a file or stdin, writes CSV or JSON to a file or stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Jerell/bathymetry-tool/internal/export"
	"github.com/Jerell/bathymetry-tool/internal/geo"
	"github.com/Jerell/bathymetry-tool/internal/reader"
	"github.com/Jerell/bathymetry-tool/internal/segment"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Input  string `short:"i" long:"in" description:"Input file path (DMS listing). Reads from stdin if empty"`
	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"csv" choice:"json" default:"csv"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Read Input
	var in io.Reader = os.Stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	points, meta, err := reader.ReadDMS(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing DMS listing: %v\n", err)
		os.Exit(1)
	}

	segments, err := segment.Compute(points, segment.MetricFor(meta))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing segments: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if opts.Format == "json" {
		err = export.WriteJSON(out, geo.Result{Metadata: meta, Segments: segments})
	} else {
		err = export.WriteCSV(out, segments)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		fmt.Fprintf(os.Stderr, "Converted %d points to %d segments (%s)\n", len(points), len(segments), opts.Output)
	}
}
