package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/automlab/benchtainer/internal/container"
	"github.com/automlab/benchtainer/internal/git"
	"github.com/automlab/benchtainer/internal/recipe"
	"github.com/automlab/benchtainer/internal/registry"
)

// libraryDir is the staged benchmark library path inside the build
// context.
const libraryDir = "library"

// staged describes a prepared build context.
type staged struct {
	// Dir is the build context directory.
	Dir string

	// DefinitionFile is the definition file name inside Dir (sif builds
	// only; OCI builds use the generated Dockerfile).
	DefinitionFile string
}

// stage prepares the build context under the cache directory: recipe
// %files are copied in, the benchmark library is cloned at its pinned
// ref, and the runtime-appropriate build file is written.
func (b *Builder) stage(ctx context.Context, entry registry.Entry, def *recipe.Definition) (staged, error) {
	dir := filepath.Join(b.cfg.CacheDir, "build", entry.Name())
	if err := os.RemoveAll(dir); err != nil {
		return staged{}, fmt.Errorf("clear build context %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return staged{}, fmt.Errorf("create build context %s: %w", dir, err)
	}

	for _, f := range def.Files {
		if err := b.copyRecipeFile(dir, f); err != nil {
			return staged{}, err
		}
	}

	oci := container.IsOCI(b.runtime())

	// OCI builds pin the library: the host clones the configured ref
	// once and the Dockerfile copies the snapshot instead of cloning at
	// build time. Definition-file builds run %post as written.
	var libraryDest string
	if oci && entry.Library != nil {
		dest := filepath.Join(dir, libraryDir)
		if err := git.Clone(ctx, entry.Library.Repo, entry.Library.Ref, dest); err != nil {
			return staged{}, fmt.Errorf("clone library %s: %w", entry.Library.Repo, err)
		}
		libraryDest = cloneDestination(def.PostCommands(), entry.Library.Repo)
	}

	if oci {
		dockerfile := RenderDockerfile(def, libraryDest)
		if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(dockerfile), 0o644); err != nil {
			return staged{}, fmt.Errorf("write Dockerfile: %w", err)
		}
		return staged{Dir: dir}, nil
	}

	name := entry.Name() + ".def"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(def.Render()), 0o644); err != nil {
		return staged{}, fmt.Errorf("write definition file: %w", err)
	}
	return staged{Dir: dir, DefinitionFile: name}, nil
}

// copyRecipeFile copies a %files source into the build context. Sources
// resolve relative to the recipe directory.
func (b *Builder) copyRecipeFile(dir string, f recipe.FileMapping) error {
	source := f.Source
	if !filepath.IsAbs(source) {
		source = filepath.Join(b.cfg.RecipeDir, source)
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("recipe file %s: %w", f.Source, err)
	}
	defer in.Close()

	dest := filepath.Join(dir, filepath.Base(f.Source))
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("stage recipe file %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy recipe file %s: %w", f.Source, err)
	}
	return nil
}

// cloneDestination finds the in-container destination of a
// `git clone <repo> <dest>` post command. Empty when the recipe does
// not clone the repo itself.
func cloneDestination(commands []string, repo string) string {
	for _, cmd := range commands {
		fields := strings.Fields(cmd)
		if len(fields) >= 4 && fields[0] == "git" && fields[1] == "clone" && containsField(fields, repo) {
			return fields[len(fields)-1]
		}
	}
	return ""
}

func containsField(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}
