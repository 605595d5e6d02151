// Package exrutil provides file-level helpers on top of package exr:
// summaries, channel extraction, validation, comparison and recompression.
//
// Example usage:
//
//	info, _ := exrutil.GetFileInfo("lut.exr")
//	fmt.Printf("Size: %dx%d, Channels: %v\n", info.Width, info.Height, info.Channels)
//
//	red, _ := exrutil.ExtractChannel(f, "R")
package exrutil

import (
	"fmt"
	"os"

	"github.com/mrjoshuak/go-texexr/exr"
)

// ===========================================
// File Information
// ===========================================

// FileInfo provides a summary of a container file.
type FileInfo struct {
	Path        string
	Width       int
	Height      int
	Compression exr.Compression
	LineOrder   exr.LineOrder
	Channels    []string
	PixelTypes  []exr.PixelType
	Blocks      int
	BlockSizes  []int
	FileSize    int64
	Warnings    []string
}

// GetFileInfo returns summary information about a container file.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := exr.ReadFile(path)
	if err != nil {
		return nil, err
	}

	h := f.Header
	dw := h.DataWindow()
	info := &FileInfo{
		Path:        path,
		Width:       int(dw.Width()),
		Height:      int(dw.Height()),
		Compression: h.Compression(),
		LineOrder:   h.LineOrder(),
		Blocks:      len(f.Blocks),
		FileSize:    stat.Size(),
		Warnings:    f.Warnings,
	}

	cl := h.Channels()
	for i := 0; i < cl.Len(); i++ {
		ch := cl.At(i)
		info.Channels = append(info.Channels, ch.Name)
		info.PixelTypes = append(info.PixelTypes, ch.Type)
	}
	for _, b := range f.Blocks {
		n, err := b.DataSize()
		if err != nil {
			return nil, err
		}
		info.BlockSizes = append(info.BlockSizes, n)
	}

	return info, nil
}

// ===========================================
// Channel Utilities
// ===========================================

// ExtractChannel extracts a single channel as a float32 slice in row-major
// order. The channel data is converted to float32 regardless of storage type.
func ExtractChannel(f *exr.File, channelName string) ([]float32, error) {
	cl := f.Header.Channels()
	idx := -1
	for i := 0; i < cl.Len(); i++ {
		if cl.At(i).Name == channelName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("channel %q not found", channelName)
	}

	p, err := f.ToPixelArray()
	if err != nil {
		return nil, err
	}

	out := make([]float32, p.Height*p.Width)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			out[y*p.Width+x] = p.Float32At(y, x, idx)
		}
	}
	return out, nil
}

// ExtractChannels extracts multiple channels as float32 slices.
func ExtractChannels(f *exr.File, channelNames ...string) (map[string][]float32, error) {
	result := make(map[string][]float32, len(channelNames))
	for _, name := range channelNames {
		data, err := ExtractChannel(f, name)
		if err != nil {
			return nil, err
		}
		result[name] = data
	}
	return result, nil
}

// ===========================================
// Validation
// ===========================================

// ValidationResult contains the results of file validation.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

// ValidateFile parses a file and decodes every block. Problems that make
// the file unreadable are reported in Errors; the returned error is reserved
// for failures to access the file.
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if stat.Size() < 8 {
		result.Valid = false
		result.Errors = append(result.Errors, "file too small to be a container")
		return result, nil
	}

	f, err := exr.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("cannot parse file: %v", err))
		return result, nil
	}

	for _, b := range f.Blocks {
		if _, err := b.Pixels(); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("block y=%d: %v", b.YCoord, err))
		}
	}

	h := f.Header
	if h.DisplayWindow() != h.DataWindow() {
		result.Warnings = append(result.Warnings, "display window differs from data window")
	}
	if dw := h.DataWindow(); dw.Width() > 32768 || dw.Height() > 32768 {
		result.Warnings = append(result.Warnings, "very large image dimensions")
	}
	if _, uniform := h.Channels().UniformType(); !uniform {
		result.Warnings = append(result.Warnings, "channels use mixed pixel types")
	}
	if n := h.Channels().Len(); n != 3 && n != 4 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d channels, texture tools expect 3 or 4", n))
	}
	result.Warnings = append(result.Warnings, f.Warnings...)

	return result, nil
}

// ===========================================
// Comparison
// ===========================================

// CompareOptions configures file comparison behavior.
type CompareOptions struct {
	Tolerance      float32 // Maximum allowed difference for pixel values
	IgnoreMetadata bool    // If true, only compare pixel data
}

// CompareFiles checks if two container files have equivalent content.
// Returns true if files match within tolerance, along with any differences found.
func CompareFiles(path1, path2 string, opts CompareOptions) (bool, []string, error) {
	var diffs []string

	f1, err := exr.ReadFile(path1)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path1, err)
	}
	f2, err := exr.ReadFile(path2)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path2, err)
	}

	h1, h2 := f1.Header, f2.Header
	dw1, dw2 := h1.DataWindow(), h2.DataWindow()
	if dw1.Width() != dw2.Width() || dw1.Height() != dw2.Height() {
		diffs = append(diffs, fmt.Sprintf("dimensions differ: %dx%d vs %dx%d",
			dw1.Width(), dw1.Height(), dw2.Width(), dw2.Height()))
		return false, diffs, nil
	}

	cl1, cl2 := h1.Channels(), h2.Channels()
	if cl1.Len() != cl2.Len() {
		diffs = append(diffs, fmt.Sprintf("channel count differs: %d vs %d", cl1.Len(), cl2.Len()))
	}
	for _, name := range cl2.Names() {
		if _, ok := cl1.Get(name); !ok {
			diffs = append(diffs, fmt.Sprintf("channel %q in file2 but not file1", name))
		}
	}

	if !opts.IgnoreMetadata {
		if h1.Compression() != h2.Compression() {
			diffs = append(diffs, fmt.Sprintf("compression differs: %v vs %v",
				h1.Compression(), h2.Compression()))
		}
		if h1.LineOrder() != h2.LineOrder() {
			diffs = append(diffs, fmt.Sprintf("line order differs: %v vs %v",
				h1.LineOrder(), h2.LineOrder()))
		}
	}

	for _, name := range cl1.Names() {
		if _, ok := cl2.Get(name); !ok {
			diffs = append(diffs, fmt.Sprintf("channel %q in file1 but not file2", name))
			continue
		}

		data1, err := ExtractChannel(f1, name)
		if err != nil {
			return false, nil, fmt.Errorf("error reading channel %s from file1: %w", name, err)
		}
		data2, err := ExtractChannel(f2, name)
		if err != nil {
			return false, nil, fmt.Errorf("error reading channel %s from file2: %w", name, err)
		}

		maxDiff := float32(0)
		diffCount := 0
		for i := range data1 {
			diff := data1[i] - data2[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > opts.Tolerance {
				diffCount++
				if diff > maxDiff {
					maxDiff = diff
				}
			}
		}

		if diffCount > 0 {
			diffs = append(diffs, fmt.Sprintf("channel %q: %d pixels differ (max diff: %f)",
				name, diffCount, maxDiff))
		}
	}

	return len(diffs) == 0, diffs, nil
}

// ===========================================
// Conversion Utilities
// ===========================================

// ConvertCompression reads a container file and writes it again with the
// given compression. The input must be an RGB or RGBA file of a single
// half or float type.
func ConvertCompression(input, output string, compression exr.Compression) error {
	f, err := exr.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	p, err := f.ToPixelArray()
	if err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}

	opts := exr.DefaultBuildOptions()
	opts.Compression = compression
	opts.ForceCompression = true
	out, err := exr.FromPixelArrayWithOptions(p, opts)
	if err != nil {
		return err
	}
	return exr.WriteFile(output, out)
}
