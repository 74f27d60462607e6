package domain

import (
	"path/filepath"
	"strings"
)

// Layout tells whether samples carry one read file or a forward/reverse pair.
type Layout string

const (
	LayoutSingle Layout = "single"
	LayoutPaired Layout = "paired"
)

// Sample is one unit of sequencing data: a forward read file and, for
// paired-end data, its reverse mate. Paths point to gzip-compressed FASTQ.
type Sample struct {
	ID      string
	Forward string
	Reverse string // Empty for single-end samples.
}

// Layout returns the sample's read layout.
func (s Sample) Layout() Layout {
	if s.Reverse != "" {
		return LayoutPaired
	}
	return LayoutSingle
}

// Inputs returns the sample's input files in forward, reverse order.
func (s Sample) Inputs() []string {
	if s.Reverse == "" {
		return []string{s.Forward}
	}
	return []string{s.Forward, s.Reverse}
}

// Manifest is an ordered collection of samples. Processing order is the
// order of Samples.
type Manifest struct {
	Name    string
	Path    string
	Layout  Layout
	Samples []Sample
}

// ManifestRef is a lightweight reference to a manifest file on disk.
type ManifestRef struct {
	Name string
	Path string
}

// OutputName derives the output filename for an input read file: its base
// name, with a .gz suffix added when missing since outputs are always
// gzip-compressed.
func OutputName(input string) string {
	base := filepath.Base(input)
	if strings.HasSuffix(strings.ToLower(base), ".gz") {
		return base
	}
	return base + ".gz"
}

// StagedName is the name of the decompressed copy of input inside a scratch
// workspace.
func StagedName(input string) string {
	return filepath.Base(input) + ".fastq"
}
