// dds2exr converts a floating-point DDS or EDDS texture into a scanline
// container file.
//
// Usage:
//
//	dds2exr [options] infile outfile
//
// Options:
//
//	-v           verbose output
//	-c <type>    compression type (none, zip, auto) - default: auto
//	-l <level>   zlib level for zip blocks (-2..9, 0 = default) - default: -1
//	-version     show version information
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrjoshuak/go-texexr/compression"
	"github.com/mrjoshuak/go-texexr/ddsio"
	"github.com/mrjoshuak/go-texexr/exr"
)

const version = "1.0.0"

func main() {
	verbose := flag.Bool("v", false, "verbose output")
	compressionStr := flag.String("c", "auto", "compression type (none, zip, auto)")
	level := flag.Int("l", int(compression.CompressionLevelDefault), "zlib level for zip blocks (-2..9, 0 means default)")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dds2exr [options] infile outfile\n\n")
		fmt.Fprintf(os.Stderr, "Convert a 16 or 32 bit float DDS/EDDS texture to a scanline container.\n")
		fmt.Fprintf(os.Stderr, "With -c auto, multi-row images use zip and single-row images\n")
		fmt.Fprintf(os.Stderr, "use whichever of none and zip is smaller.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("dds2exr version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}

	opts := exr.DefaultBuildOptions()
	opts.Level = compression.CompressionLevel(*level)
	if *level < int(compression.CompressionLevelHuffmanOnly) || *level > int(compression.CompressionLevelBestSize) {
		fmt.Fprintf(os.Stderr, "Error: invalid zlib level: %d\n", *level)
		os.Exit(1)
	}
	if !strings.EqualFold(*compressionStr, "auto") {
		c, err := exr.ParseCompression(*compressionStr)
		if err != nil || !c.Supported() {
			fmt.Fprintf(os.Stderr, "Error: invalid compression type: %s\n", *compressionStr)
			fmt.Fprintf(os.Stderr, "Valid options are: none, zip, auto\n")
			os.Exit(1)
		}
		opts.Compression = c
		opts.ForceCompression = true
	}

	if err := convert(args[0], args[1], opts, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func convert(inFile, outFile string, opts *exr.BuildOptions, verbose bool) error {
	if verbose {
		fmt.Printf("Reading file %s\n", inFile)
	}

	in, err := os.Open(inFile)
	if err != nil {
		return fmt.Errorf("cannot open input file: %w", err)
	}
	defer in.Close()

	p, err := ddsio.Read(in)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}

	if verbose {
		fmt.Printf("  Size: %dx%d\n", p.Width, p.Height)
		fmt.Printf("  Channels: %d (%s)\n", p.Channels, p.Type)
	}

	f, err := exr.FromPixelArrayWithOptions(p, opts)
	if err != nil {
		return fmt.Errorf("cannot build container: %w", err)
	}

	if verbose {
		fmt.Printf("Writing file %s\n", outFile)
		fmt.Printf("  Compression: %s\n", f.Header.Compression())
		fmt.Printf("  Blocks: %d\n", len(f.Blocks))
	}

	if err := exr.WriteFile(outFile, f); err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}

	if verbose {
		fmt.Println("Done")
	}
	return nil
}
