// exr2dds converts a scanline container file into a floating-point DDS
// texture.
//
// Usage:
//
//	exr2dds [options] infile outfile
//
// Options:
//
//	-v           verbose output
//	-edds        write the EDDS block-table variant
//	-lz4         compress the EDDS block with LZ4 when it saves space
//	-version     show version information
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-texexr/ddsio"
	"github.com/mrjoshuak/go-texexr/exr"
)

const version = "1.0.0"

func main() {
	verbose := flag.Bool("v", false, "verbose output")
	edds := flag.Bool("edds", false, "write the EDDS block-table variant")
	lz4 := flag.Bool("lz4", false, "compress the EDDS block with LZ4 (implies -edds)")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: exr2dds [options] infile outfile\n\n")
		fmt.Fprintf(os.Stderr, "Convert a scanline container to a float DDS texture.\n")
		fmt.Fprintf(os.Stderr, "Half images become A16B16G16R16F, float images A32B32G32R32F.\n")
		fmt.Fprintf(os.Stderr, "RGB images are written with an opaque alpha channel.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("exr2dds version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}

	opts := &ddsio.WriteOptions{EDDS: *edds || *lz4, Compress: *lz4}
	if err := convert(args[0], args[1], opts, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func convert(inFile, outFile string, opts *ddsio.WriteOptions, verbose bool) error {
	if verbose {
		fmt.Printf("Reading file %s\n", inFile)
	}

	f, err := exr.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	for _, w := range f.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	p, err := f.ToPixelArray()
	if err != nil {
		return fmt.Errorf("cannot decode pixels: %w", err)
	}

	if verbose {
		fmt.Printf("  Size: %dx%d\n", p.Width, p.Height)
		fmt.Printf("  Compression: %s\n", f.Header.Compression())
		fmt.Printf("  Channels: %v (%s)\n", f.Header.Channels().Names(), p.Type)
		fmt.Printf("Writing file %s\n", outFile)
	}

	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	if err := ddsio.Write(out, p, opts); err != nil {
		out.Close()
		return fmt.Errorf("cannot write output file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}

	if verbose {
		fmt.Println("Done")
	}
	return nil
}
