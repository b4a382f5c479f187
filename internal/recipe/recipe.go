// Package recipe models Singularity definition files: the declarative
// build+run descriptions benchmark images are assembled from.
package recipe

import (
	"fmt"
	"sort"
	"strings"
)

// Definition is a parsed definition file. The header selects the base
// image; sections carry build-time scripts and run-time metadata.
type Definition struct {
	// Header holds the raw header keywords (Bootstrap, From, Stage, ...).
	// Keys are stored lowercase.
	Header map[string]string

	// Labels from the %labels section, in file order.
	Labels []Label

	// Files from the %files section: host source to container destination.
	Files []FileMapping

	// Setup, Post, Test and Runscript are the section scripts, one line
	// per entry, comments and blank lines preserved.
	Setup     []string
	Post      []string
	Test      []string
	Runscript []string

	// Environment is the %environment section (sourced at run time).
	Environment []string

	// Help is the %help free text.
	Help []string
}

// Label is a single %labels entry.
type Label struct {
	Name  string
	Value string
}

// FileMapping is a single %files entry. An empty Dest means "same path
// in the container".
type FileMapping struct {
	Source string
	Dest   string
}

// Bootstrap returns the header bootstrap agent (e.g. "docker").
func (d *Definition) Bootstrap() string {
	return d.Header["bootstrap"]
}

// From returns the header base image reference.
func (d *Definition) From() string {
	return d.Header["from"]
}

// PostCommands returns the build steps: non-blank, non-comment lines of
// the %post section, in order.
func (d *Definition) PostCommands() []string {
	var cmds []string
	for _, line := range d.Post {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		cmds = append(cmds, trimmed)
	}
	return cmds
}

// RunCommand returns the runscript launch line split into fields, with
// the trailing "$@" / "$*" pass-through marker stripped. Returns nil if
// the runscript is empty.
func (d *Definition) RunCommand() []string {
	for _, line := range d.Runscript {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		for len(fields) > 0 {
			last := fields[len(fields)-1]
			if last == "$@" || last == `"$@"` || last == "$*" {
				fields = fields[:len(fields)-1]
				continue
			}
			break
		}
		return fields
	}
	return nil
}

// Validate checks structural requirements: a bootstrap agent and base
// image must be present, %files sources must be non-empty, and the
// runscript must launch a benchmark server
// (`<launcher> serve <benchmark_id> [args...]`).
func (d *Definition) Validate() error {
	if d.Bootstrap() == "" {
		return fmt.Errorf("definition has no Bootstrap header")
	}
	if d.From() == "" {
		return fmt.Errorf("definition has no From header")
	}
	for _, f := range d.Files {
		if f.Source == "" {
			return fmt.Errorf("%%files entry has empty source")
		}
	}
	cmd := d.RunCommand()
	if len(cmd) == 0 {
		return fmt.Errorf("definition has no %%runscript launch line")
	}
	if len(cmd) < 3 || cmd[1] != "serve" {
		return fmt.Errorf("runscript %q does not launch a benchmark: want <launcher> serve <benchmark_id>",
			strings.Join(cmd, " "))
	}
	return nil
}

// sortedHeaderKeys returns header keys in deterministic order with
// bootstrap and from first, matching conventional definition layout.
func (d *Definition) sortedHeaderKeys() []string {
	keys := make([]string, 0, len(d.Header))
	for k := range d.Header {
		if k == "bootstrap" || k == "from" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]string, 0, len(d.Header))
	if _, ok := d.Header["bootstrap"]; ok {
		ordered = append(ordered, "bootstrap")
	}
	if _, ok := d.Header["from"]; ok {
		ordered = append(ordered, "from")
	}
	return append(ordered, keys...)
}
