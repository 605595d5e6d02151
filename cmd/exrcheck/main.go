// exrcheck validates scanline container files by parsing them and decoding
// every block.
//
// Usage:
//
//	exrcheck [-q|--quiet] [-s|--strict] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet   Only output errors. Exit code indicates pass/fail.
//	-s, --strict  Treat warnings as errors.
//	-h, --help    Show this help message.
//	--version     Show version information.
//
// Exit codes:
//
//	0: All files valid
//	1: One or more files invalid
//	2: Error (file not found, etc.)
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mrjoshuak/go-texexr/exrutil"
)

const version = "1.0.0"

func main() {
	quiet := false
	strict := false
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-q", "--quiet":
			quiet = true
		case "-s", "--strict":
			strict = true
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--version":
			fmt.Printf("exrcheck version %s\n", version)
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				printUsage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input files specified")
		printUsage()
		os.Exit(2)
	}

	validCount := 0
	errorOccurred := false

	for _, filename := range files {
		result, err := exrutil.ValidateFile(filename)
		if err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
			}
			errorOccurred = true
			continue
		}

		valid := result.Valid && (!strict || len(result.Warnings) == 0)
		if valid {
			validCount++
		}

		if !quiet {
			printResult(filename, result, valid)
		} else if !valid {
			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filename, msg)
			}
			if strict {
				for _, msg := range result.Warnings {
					fmt.Fprintf(os.Stderr, "%s: %s\n", filename, msg)
				}
			}
		}
	}

	if len(files) > 1 && !quiet {
		fmt.Printf("\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	if errorOccurred {
		os.Exit(2)
	}
	if validCount < len(files) {
		os.Exit(1)
	}
	os.Exit(0)
}

func printUsage() {
	fmt.Println(`Usage: exrcheck [options] <filename> [<filename> ...]

Validate scanline container files by parsing the header and decoding
every block.

Options:
  -q, --quiet    Only output errors. Exit code indicates pass/fail.
  -s, --strict   Treat warnings as errors.
  -h, --help     Show this help message.
  --version      Show version information.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (file not found, permission denied, etc.)

Examples:
  exrcheck lut.exr                    Validate a single file
  exrcheck -q *.exr                   Validate all files silently
  exrcheck -s lut.exr                 Fail on warnings too`)
}

func printResult(filename string, result *exrutil.ValidationResult, valid bool) {
	if valid {
		fmt.Printf("%s: OK\n", filename)
	} else {
		fmt.Printf("%s: INVALID\n", filename)
	}
	for _, msg := range result.Errors {
		fmt.Printf("  [ERROR] %s\n", msg)
	}
	for _, msg := range result.Warnings {
		fmt.Printf("  [WARNING] %s\n", msg)
	}
}
