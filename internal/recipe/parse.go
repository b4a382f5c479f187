package recipe

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// knownSections are the definition-file sections benchtainer understands.
var knownSections = map[string]bool{
	"help":        true,
	"setup":       true,
	"files":       true,
	"labels":      true,
	"environment": true,
	"post":        true,
	"runscript":   true,
	"test":        true,
}

// Parse reads a Singularity definition file. Header keywords precede the
// first %section; each section runs until the next %section or EOF.
// Repeated and unknown sections are errors.
func Parse(r io.Reader) (*Definition, error) {
	def := &Definition{Header: make(map[string]string)}

	seen := make(map[string]bool)
	section := ""
	lineNo := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "%") {
			name := strings.ToLower(strings.TrimPrefix(trimmed, "%"))
			// Section headers take no arguments in the subset we support.
			if i := strings.IndexAny(name, " \t"); i >= 0 {
				name = name[:i]
			}
			if !knownSections[name] {
				return nil, fmt.Errorf("line %d: unknown section %%%s", lineNo, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("line %d: repeated section %%%s", lineNo, name)
			}
			seen[name] = true
			section = name
			continue
		}

		if section == "" {
			if err := parseHeaderLine(def, trimmed, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		switch section {
		case "help":
			def.Help = append(def.Help, line)
		case "setup":
			def.Setup = append(def.Setup, line)
		case "post":
			def.Post = append(def.Post, line)
		case "test":
			def.Test = append(def.Test, line)
		case "runscript":
			def.Runscript = append(def.Runscript, line)
		case "environment":
			def.Environment = append(def.Environment, line)
		case "labels":
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			name, value, _ := strings.Cut(trimmed, " ")
			def.Labels = append(def.Labels, Label{
				Name:  name,
				Value: strings.TrimSpace(value),
			})
		case "files":
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			src, dst, _ := strings.Cut(trimmed, " ")
			def.Files = append(def.Files, FileMapping{
				Source: src,
				Dest:   strings.TrimSpace(dst),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	return def, nil
}

// ParseFromBytes parses an in-memory definition file.
func ParseFromBytes(data []byte) (*Definition, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile parses the definition file at path.
func ParseFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition %s: %w", path, err)
	}
	defer f.Close()

	def, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

func parseHeaderLine(def *Definition, trimmed string, lineNo int) error {
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}
	key, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		return fmt.Errorf("line %d: malformed header line %q", lineNo, trimmed)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return fmt.Errorf("line %d: malformed header line %q", lineNo, trimmed)
	}
	if _, dup := def.Header[key]; dup {
		return fmt.Errorf("line %d: repeated header keyword %q", lineNo, key)
	}
	def.Header[key] = value
	return nil
}
