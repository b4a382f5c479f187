package container

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func TestCLIManager_ImplementsManagerInterface(t *testing.T) {
	var _ Manager = (*CLIManager)(nil)
}

func TestCLIManager_NewCLIManager(t *testing.T) {
	mgr := NewCLIManager("docker")
	if mgr == nil {
		t.Fatal("NewCLIManager returned nil")
	}
	if mgr.Runtime() != "docker" {
		t.Errorf("expected runtime docker, got %s", mgr.Runtime())
	}
}

func TestCLIManager_CreateRejectsSifRuntimes(t *testing.T) {
	for _, runtime := range []string{"apptainer", "singularity"} {
		mgr := NewCLIManager(runtime)
		_, err := mgr.Create(context.Background(), ContainerConfig{Image: "x", Name: "y"})
		if err == nil {
			t.Errorf("%s: expected error for detached run", runtime)
		}
	}
}

func TestSifName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"benchtainer/nasbench_201:latest", "nasbench_201.sif"},
		{"cartpole:v2", "cartpole.sif"},
		{"plain", "plain.sif"},
	}
	for _, tt := range tests {
		if got := sifName(tt.tag); got != tt.want {
			t.Errorf("sifName(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestTail(t *testing.T) {
	long := strings.Repeat("x", 100)
	if got := tail([]byte(long), 10); len(got) != 10 {
		t.Errorf("tail returned %d bytes, want 10", len(got))
	}
	if got := tail([]byte("short"), 10); string(got) != "short" {
		t.Errorf("tail truncated short input: %q", got)
	}
}

func TestIsOCI(t *testing.T) {
	for runtime, want := range map[string]bool{
		"docker":      true,
		"podman":      true,
		"apptainer":   false,
		"singularity": false,
	} {
		if got := IsOCI(runtime); got != want {
			t.Errorf("IsOCI(%q) = %v, want %v", runtime, got, want)
		}
	}
}

func TestCLIManager_FullLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	runtime, err := DetectRuntime()
	if err != nil || !IsOCI(runtime) {
		t.Skip("no OCI container runtime available")
	}

	mgr := NewCLIManager(runtime)
	ctx := context.Background()

	cfg := ContainerConfig{
		Image: "alpine:latest",
		Name:  fmt.Sprintf("benchtainer-test-%d", time.Now().UnixNano()),
		Cmd:   []string{"sh", "-c", "echo hello && exit 42"},
	}

	// Create
	id, err := mgr.Create(ctx, cfg)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() {
		mgr.Remove(context.Background(), id)
	})

	if id == "" {
		t.Error("Create returned empty container ID")
	}

	// Start
	if err := mgr.Start(ctx, id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Logs
	logs, err := mgr.Logs(ctx, id)
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	output, _ := io.ReadAll(logs)
	logs.Close()
	if !strings.Contains(string(output), "hello") {
		t.Errorf("expected log output to contain hello, got: %q", output)
	}

	// Wait
	exitCode, err := mgr.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if exitCode != 42 {
		t.Errorf("expected exit code 42, got %d", exitCode)
	}
}
