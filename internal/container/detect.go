package container

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrNoRuntime is returned when no container runtime is found.
var ErrNoRuntime = errors.New("no container runtime found (need docker, podman, apptainer or singularity)")

// runtimes in detection order. OCI runtimes first: they support the
// full detached run lifecycle, the sif runtimes only image builds.
var runtimes = []string{"docker", "podman", "apptainer", "singularity"}

// DetectRuntime finds an available container runtime.
// Verifies the binary actually works by running `<runtime> version`.
func DetectRuntime() (string, error) {
	for _, bin := range runtimes {
		if runtimeWorks(bin) {
			return bin, nil
		}
	}
	return "", ErrNoRuntime
}

// ResolveRuntime returns the runtime to use for the given preference:
// "auto" detects, anything else is verified and returned.
func ResolveRuntime(preference string) (string, error) {
	if preference == "" || preference == "auto" {
		return DetectRuntime()
	}
	if !runtimeWorks(preference) {
		return "", fmt.Errorf("container runtime %q is not available", preference)
	}
	return preference, nil
}

func runtimeWorks(bin string) bool {
	if _, err := exec.LookPath(bin); err != nil {
		return false
	}
	return exec.Command(bin, "version").Run() == nil
}

// IsOCI reports whether the runtime speaks the docker CLI dialect and
// supports create/start/wait/logs/stop/rm.
func IsOCI(runtime string) bool {
	return runtime == "docker" || runtime == "podman"
}
