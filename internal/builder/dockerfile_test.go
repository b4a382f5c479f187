package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automlab/benchtainer/internal/recipe"
)

const testDef = `Bootstrap: docker
From: python:3.7-slim

%labels
MAINTAINER automlab
VERSION v0.0.2

%files
config/settings.yaml /etc/settings.yaml

%post
    apt update -y
    git clone https://github.com/automl/HPOlib3.git /home/hpolib3
    cd /home/hpolib3 && pip install .[ml]
    mkdir -p /var/lib/benchtainer

%environment
    export LC_ALL=C
    export PYTHONUNBUFFERED="1"
    umask 022

%runscript
    benchtainer serve ml.svm_benchmark $@
`

func parseTestDef(t *testing.T) *recipe.Definition {
	t.Helper()
	def, err := recipe.ParseFromBytes([]byte(testDef))
	require.NoError(t, err)
	return def
}

func TestRenderDockerfile(t *testing.T) {
	out := RenderDockerfile(parseTestDef(t), "")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "FROM python:3.7-slim", lines[0])
	assert.Contains(t, out, `LABEL maintainer="automlab"`)
	assert.Contains(t, out, "COPY settings.yaml /etc/settings.yaml")
	assert.Contains(t, out, "RUN apt update -y && \\\n    git clone")
	assert.Contains(t, out, "mkdir -p /var/lib/benchtainer")
	assert.Contains(t, out, `ENV LC_ALL="C"`)
	assert.Contains(t, out, `ENV PYTHONUNBUFFERED="1"`)
	assert.NotContains(t, out, "umask")
	assert.Contains(t, out, `ENTRYPOINT ["benchtainer", "serve", "ml.svm_benchmark"]`)
}

func TestRenderDockerfileWithPinnedLibrary(t *testing.T) {
	out := RenderDockerfile(parseTestDef(t), "/home/hpolib3")

	assert.Contains(t, out, "COPY library /home/hpolib3")
	assert.NotContains(t, out, "git clone")
	assert.Contains(t, out, "pip install .[ml]")
}

func TestCloneDestination(t *testing.T) {
	def := parseTestDef(t)

	dest := cloneDestination(def.PostCommands(), "https://github.com/automl/HPOlib3.git")
	assert.Equal(t, "/home/hpolib3", dest)

	assert.Empty(t, cloneDestination(def.PostCommands(), "https://example.com/other.git"))
}

func TestParseExport(t *testing.T) {
	name, value, ok := parseExport(`  export PATH="/opt/bin"`)
	require.True(t, ok)
	assert.Equal(t, "PATH", name)
	assert.Equal(t, "/opt/bin", value)

	_, _, ok = parseExport("umask 022")
	assert.False(t, ok)
}
