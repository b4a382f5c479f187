package recipe

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Render produces a canonical definition file for the Definition.
// The output is stable for a given Definition, so it doubles as the
// fingerprint input: two recipes with the same canonical render build
// the same image.
func (d *Definition) Render() string {
	var b strings.Builder

	for _, key := range d.sortedHeaderKeys() {
		fmt.Fprintf(&b, "%s: %s\n", headerTitle(key), d.Header[key])
	}

	writeLines := func(name string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString("\n%")
		b.WriteString(name)
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(d.Labels) > 0 {
		b.WriteString("\n%labels\n")
		for _, l := range d.Labels {
			fmt.Fprintf(&b, "%s %s\n", l.Name, l.Value)
		}
	}

	writeLines("help", d.Help)

	if len(d.Files) > 0 {
		b.WriteString("\n%files\n")
		for _, f := range d.Files {
			if f.Dest == "" {
				fmt.Fprintf(&b, "%s\n", f.Source)
			} else {
				fmt.Fprintf(&b, "%s %s\n", f.Source, f.Dest)
			}
		}
	}

	writeLines("setup", d.Setup)
	writeLines("post", d.Post)
	writeLines("environment", d.Environment)
	writeLines("runscript", d.Runscript)
	writeLines("test", d.Test)

	return b.String()
}

// Fingerprint returns a stable hex fingerprint of the canonical render.
func (d *Definition) Fingerprint() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(d.Render()))
}

// headerTitle restores conventional casing for well-known header keys.
func headerTitle(key string) string {
	switch key {
	case "bootstrap":
		return "Bootstrap"
	case "from":
		return "From"
	case "stage":
		return "Stage"
	default:
		return key
	}
}
