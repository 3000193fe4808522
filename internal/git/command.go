// Package git runs the git CLI and parses its output.
// This file provides shared git command execution.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// RunCommand executes a git command in workDir and returns its output with
// trailing newlines removed. Leading whitespace is kept because porcelain
// status lines start with a significant space.
// All failures wrap ErrGitOperation and include stderr.
func RunCommand(ctx context.Context, workDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("git %s failed: %s: %w", args[0], strings.TrimSpace(stderr.String()), wperrors.ErrGitOperation)
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], wperrors.ErrGitOperation)
	}

	return strings.TrimRight(stdout.String(), "\r\n"), nil
}
