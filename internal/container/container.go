package container

// ContainerID is a unique identifier for a container.
// This is the full container ID returned by `docker create`, not the short form.
type ContainerID string

// ContainerConfig specifies container creation parameters.
type ContainerConfig struct {
	// Image is the container image (e.g., "benchtainer/nasbench_201:latest")
	Image string

	// Name is the container name (e.g., "benchtainer-run-01J8...")
	Name string

	// Env contains environment variables to set in the container
	Env map[string]string

	// Cmd is the command and arguments to run. Empty means the image's
	// default entrypoint (the recipe runscript).
	Cmd []string

	// WorkDir is the working directory inside the container
	WorkDir string

	// Mounts are host:container bind mounts, e.g. the scratch directory.
	Mounts []Mount

	// Ports publishes container ports on the host.
	Ports []PortMapping
}

// Mount is a single bind mount.
type Mount struct {
	Source   string // host path
	Dest     string // container path
	ReadOnly bool
}

// PortMapping publishes a container port on a host port.
type PortMapping struct {
	Host      int
	Container int
}

// BuildConfig specifies an image build.
type BuildConfig struct {
	// Tag is the image tag to produce.
	Tag string

	// ContextDir is the staged build context. For docker and podman it
	// must contain a Dockerfile; for apptainer and singularity it must
	// contain the definition file named by DefinitionFile.
	ContextDir string

	// DefinitionFile is the definition file name inside ContextDir
	// (apptainer/singularity only).
	DefinitionFile string
}
