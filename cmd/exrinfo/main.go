// exrinfo prints the header, block table and warnings of container files.
//
// Usage:
//
//	exrinfo [options] <filename> [<filename> ...]
//
// Options:
//
//	-b           list every block with its stored size
//	-version     show version information
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-texexr/exrutil"
)

const version = "1.0.0"

func main() {
	listBlocks := flag.Bool("b", false, "list every block with its stored size")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: exrinfo [options] <filename> [<filename> ...]\n\n")
		fmt.Fprintf(os.Stderr, "Print a summary of scanline container files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("exrinfo version %s\n", version)
		os.Exit(0)
	}

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	failed := false
	for i, path := range files {
		if i > 0 {
			fmt.Println()
		}
		if err := printInfo(path, *listBlocks); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func printInfo(path string, listBlocks bool) error {
	info, err := exrutil.GetFileInfo(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s:\n", info.Path)
	fmt.Printf("  File size: %d bytes\n", info.FileSize)
	fmt.Printf("  Size: %dx%d\n", info.Width, info.Height)
	fmt.Printf("  Compression: %s\n", info.Compression)
	fmt.Printf("  Line order: %s\n", info.LineOrder)
	fmt.Printf("  Channels:\n")
	for i, name := range info.Channels {
		fmt.Printf("    %-8s %s\n", name, info.PixelTypes[i])
	}

	total := 0
	for _, n := range info.BlockSizes {
		total += n
	}
	fmt.Printf("  Blocks: %d (%d data bytes)\n", info.Blocks, total)
	if listBlocks {
		for i, n := range info.BlockSizes {
			fmt.Printf("    [%d] %d bytes\n", i, n)
		}
	}

	for _, w := range info.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	return nil
}
