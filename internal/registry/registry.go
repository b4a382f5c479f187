// Package registry holds the benchmark catalog: the mapping from dotted
// benchmark identifiers to the recipe, datasets and server settings
// needed to build and run them.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Entry describes one benchmark in the catalog.
type Entry struct {
	// ID is the dotted benchmark identifier, e.g. "nas.nasbench_201".
	ID string `yaml:"id"`

	// Description is a one-line summary shown by `benchtainer list`.
	Description string `yaml:"description"`

	// Recipe is the definition file name, resolved against the user
	// recipe directory first, then the embedded recipes.
	Recipe string `yaml:"recipe"`

	// Image overrides the generated image tag. Empty means
	// "<prefix>/<name>:latest".
	Image string `yaml:"image,omitempty"`

	// Library is the benchmark library cloned into the build context.
	Library *Library `yaml:"library,omitempty"`

	// Datasets are fetched into the cache before the image build and
	// staged into the build context.
	Datasets []Dataset `yaml:"datasets,omitempty"`

	// Port overrides the default benchmark server port.
	Port int `yaml:"port,omitempty"`
}

// Library identifies a git repository installed during the build.
type Library struct {
	Repo string `yaml:"repo"`
	Ref  string `yaml:"ref,omitempty"`
}

// Dataset is a downloadable data dependency of a benchmark.
type Dataset struct {
	// Name is the file name inside the build context's data directory.
	Name string `yaml:"name"`

	// URL is the download source.
	URL string `yaml:"url"`

	// SHA256 is the expected checksum. Empty skips verification.
	SHA256 string `yaml:"sha256,omitempty"`
}

// Family returns the identifier's family part ("nas" of "nas.nasbench_201").
func (e *Entry) Family() string {
	family, _, _ := strings.Cut(e.ID, ".")
	return family
}

// Name returns the identifier's benchmark part ("nasbench_201").
func (e *Entry) Name() string {
	_, name, _ := strings.Cut(e.ID, ".")
	return name
}

// ImageTag returns the image tag for this entry under the given prefix.
func (e *Entry) ImageTag(prefix string) string {
	if e.Image != "" {
		return e.Image
	}
	return fmt.Sprintf("%s/%s:latest", prefix, e.Name())
}

// Catalog is a set of benchmark entries keyed by identifier.
type Catalog struct {
	entries map[string]Entry
}

// idPattern matches valid identifiers: family.name, lowercase, with
// digits and underscores allowed after the first character.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// ValidateID checks that id is a well-formed dotted benchmark identifier.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid benchmark identifier %q: want family.name (lowercase, underscores)", id)
	}
	return nil
}

// UnknownBenchmarkError is returned when an identifier is not in the
// catalog. It carries the known identifiers for error messages.
type UnknownBenchmarkError struct {
	ID    string
	Known []string
}

func (e *UnknownBenchmarkError) Error() string {
	return fmt.Sprintf("unknown benchmark %q (known: %s)", e.ID, strings.Join(e.Known, ", "))
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Entry, error) {
	if err := ValidateID(id); err != nil {
		return Entry{}, err
	}
	entry, ok := c.entries[id]
	if !ok {
		return Entry{}, &UnknownBenchmarkError{ID: id, Known: c.IDs()}
	}
	return entry, nil
}

// IDs returns all identifiers in the catalog, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// merge overlays other's entries, replacing same-ID entries.
func (c *Catalog) merge(other *Catalog) {
	for id, entry := range other.entries {
		c.entries[id] = entry
	}
}
