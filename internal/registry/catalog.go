package registry

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

//go:embed recipes/*.def
var embeddedRecipes embed.FS

// catalogFile is the on-disk catalog format.
type catalogFile struct {
	Benchmarks []Entry `yaml:"benchmarks"`
}

// Default returns the embedded benchmark catalog.
func Default() (*Catalog, error) {
	return parseCatalog(defaultCatalog)
}

// Load returns the embedded catalog with the user catalog at path merged
// over it. An empty path or missing file returns the embedded catalog
// unchanged.
func Load(path string) (*Catalog, error) {
	cat, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	user, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	cat.merge(user)
	return cat, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	cat := &Catalog{entries: make(map[string]Entry, len(file.Benchmarks))}
	for _, entry := range file.Benchmarks {
		if err := ValidateID(entry.ID); err != nil {
			return nil, err
		}
		if entry.Recipe == "" {
			return nil, fmt.Errorf("benchmark %s: missing recipe", entry.ID)
		}
		cat.entries[entry.ID] = entry
	}
	return cat, nil
}

// OpenRecipe returns the recipe definition source for an entry. A file
// in recipeDir wins over the embedded recipe of the same name.
func OpenRecipe(entry Entry, recipeDir string) ([]byte, error) {
	if recipeDir != "" {
		path := filepath.Join(recipeDir, entry.Recipe)
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read recipe %s: %w", path, err)
		}
	}

	data, err := fs.ReadFile(embeddedRecipes, "recipes/"+entry.Recipe)
	if err != nil {
		return nil, fmt.Errorf("no recipe %s for benchmark %s: %w", entry.Recipe, entry.ID, err)
	}
	return data, nil
}
