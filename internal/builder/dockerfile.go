package builder

import (
	"fmt"
	"strings"

	"github.com/automlab/benchtainer/internal/recipe"
)

// RenderDockerfile translates a definition into an equivalent
// Dockerfile for OCI runtimes. Sections map mechanically: the header
// becomes FROM, %labels become LABEL, %files become COPY, %post becomes
// a single RUN, %environment's exports become ENV and the runscript
// becomes the ENTRYPOINT.
//
// When libraryDest is non-empty a pinned library snapshot sits at
// library/ in the build context: the matching `git clone` post command
// is replaced by a COPY of the snapshot.
func RenderDockerfile(def *recipe.Definition, libraryDest string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n", def.From())

	for _, l := range def.Labels {
		fmt.Fprintf(&b, "LABEL %s=%q\n", strings.ToLower(l.Name), l.Value)
	}

	for _, f := range def.Files {
		dest := f.Dest
		if dest == "" {
			dest = f.Source
		}
		fmt.Fprintf(&b, "COPY %s %s\n", baseName(f.Source), dest)
	}

	commands := def.PostCommands()
	if libraryDest != "" {
		fmt.Fprintf(&b, "COPY %s %s\n", libraryDir, libraryDest)
		commands = dropCloneCommand(commands, libraryDest)
	}

	if len(commands) > 0 {
		b.WriteString("RUN ")
		b.WriteString(strings.Join(commands, " && \\\n    "))
		b.WriteString("\n")
	}

	for _, line := range def.Environment {
		if name, value, ok := parseExport(line); ok {
			fmt.Fprintf(&b, "ENV %s=%q\n", name, value)
		}
	}

	if run := def.RunCommand(); len(run) > 0 {
		quoted := make([]string, len(run))
		for i, field := range run {
			quoted[i] = fmt.Sprintf("%q", field)
		}
		fmt.Fprintf(&b, "ENTRYPOINT [%s]\n", strings.Join(quoted, ", "))
	}

	return b.String()
}

// dropCloneCommand removes the `git clone ... <dest>` step the COPY of
// the pinned snapshot replaces.
func dropCloneCommand(commands []string, dest string) []string {
	kept := make([]string, 0, len(commands))
	for _, cmd := range commands {
		fields := strings.Fields(cmd)
		if len(fields) >= 4 && fields[0] == "git" && fields[1] == "clone" && fields[len(fields)-1] == dest {
			continue
		}
		kept = append(kept, cmd)
	}
	return kept
}

// parseExport splits an `export NAME=value` environment line.
func parseExport(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "export ") {
		return "", "", false
	}
	name, value, ok := strings.Cut(strings.TrimPrefix(trimmed, "export "), "=")
	if !ok || name == "" {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.Trim(value, `"'`), true
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
