package git

import (
	"context"
	"fmt"
	"strings"
)

// Clone clones repo into dest. A non-empty ref is checked out after the
// clone (branch, tag or commit).
func Clone(ctx context.Context, repo, ref, dest string) error {
	runner := DefaultRunner()

	args := []string{"clone", "--depth", "1"}
	// A branch or tag can be fetched shallowly; an arbitrary commit cannot.
	if ref != "" && !looksLikeCommit(ref) {
		args = append(args, "--branch", ref)
	}
	args = append(args, repo, dest)

	if _, err := runner.Exec(ctx, "", args...); err != nil {
		return fmt.Errorf("clone %s: %w", repo, err)
	}

	if ref != "" && looksLikeCommit(ref) {
		if _, err := runner.Exec(ctx, dest, "fetch", "--depth", "1", "origin", ref); err != nil {
			return fmt.Errorf("fetch %s: %w", ref, err)
		}
		if _, err := runner.Exec(ctx, dest, "checkout", ref); err != nil {
			return fmt.Errorf("checkout %s: %w", ref, err)
		}
	}

	return nil
}

// HeadCommit returns the full commit hash of HEAD in dir.
func HeadCommit(ctx context.Context, dir string) (string, error) {
	out, err := DefaultRunner().Exec(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// looksLikeCommit reports whether ref is a full or abbreviated hex
// commit hash rather than a branch or tag name.
func looksLikeCommit(ref string) bool {
	if len(ref) < 7 || len(ref) > 40 {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
