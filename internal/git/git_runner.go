package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrz1836/waypoint/internal/ctxutil"
	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// CLIRunner implements Runner using the git command line.
type CLIRunner struct {
	workDir string
}

// Ensure CLIRunner satisfies Runner.
var _ Runner = (*CLIRunner)(nil)

// NewRunner creates a CLIRunner for workDir.
// Returns an error wrapping ErrNotGitRepo if workDir is not inside a repository.
func NewRunner(ctx context.Context, workDir string) (*CLIRunner, error) {
	if workDir == "" {
		return nil, fmt.Errorf("work directory cannot be empty: %w", wperrors.ErrEmptyValue)
	}

	r := &CLIRunner{workDir: workDir}
	if _, err := r.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%w: %w", wperrors.ErrNotGitRepo, err)
	}
	return r, nil
}

// Status returns the current working tree status.
func (r *CLIRunner) Status(ctx context.Context) (*Status, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	output, err := r.run(ctx, "status", "--porcelain", "-uall", "--branch")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return parseGitStatus(output), nil
}

// CurrentBranch returns the name of the currently checked out branch.
func (r *CLIRunner) CurrentBranch(ctx context.Context) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if output == "HEAD" {
		return "", fmt.Errorf("repository is in detached HEAD state: %w", wperrors.ErrGitOperation)
	}
	return output, nil
}

// HeadCommit returns the abbreviated hash of HEAD.
func (r *CLIRunner) HeadCommit(ctx context.Context) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	output, err := r.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// LastCommitStats returns files changed, insertions and deletions of HEAD.
func (r *CLIRunner) LastCommitStats(ctx context.Context) (*CommitStats, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	output, err := r.run(ctx, "show", "--numstat", "--format=", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get commit stats: %w", err)
	}
	return parseNumstat(output), nil
}

func (r *CLIRunner) run(ctx context.Context, args ...string) (string, error) {
	return RunCommand(ctx, r.workDir, args...)
}

// parseGitStatus parses git status --porcelain --branch output.
func parseGitStatus(output string) *Status {
	status := &Status{
		Staged:    []FileChange{},
		Unstaged:  []FileChange{},
		Untracked: []string{},
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}

		if strings.HasPrefix(line, "## ") {
			parseBranchLine(line, status)
			continue
		}

		// XY PATH or XY ORIG -> PATH
		indexStatus := line[0]
		workTreeStatus := line[1]
		path := strings.TrimSpace(line[3:])

		var oldPath string
		if before, after, found := strings.Cut(path, " -> "); found {
			oldPath = before
			path = after
		}

		if indexStatus == '?' && workTreeStatus == '?' {
			status.Untracked = append(status.Untracked, path)
			continue
		}
		if indexStatus == '!' {
			continue
		}

		if indexStatus != ' ' {
			status.Staged = append(status.Staged, FileChange{
				Path:    path,
				Status:  ChangeType(string(indexStatus)),
				OldPath: oldPath,
			})
		}
		if workTreeStatus != ' ' {
			status.Unstaged = append(status.Unstaged, FileChange{
				Path:    path,
				Status:  ChangeType(string(workTreeStatus)),
				OldPath: oldPath,
			})
		}
	}

	return status
}

// parseBranchLine parses the branch header of porcelain status output.
// Format: ## branch...origin/branch [ahead N, behind M]
func parseBranchLine(line string, status *Status) {
	line = strings.TrimPrefix(line, "## ")
	if rest, ok := strings.CutPrefix(line, "No commits yet on "); ok {
		line = rest
	}

	local, remote, found := strings.Cut(line, "...")
	status.Branch = local
	if !found {
		return
	}

	upstream, info, hasInfo := strings.Cut(remote, " [")
	status.Upstream = upstream
	if !hasInfo || !strings.HasSuffix(info, "]") {
		return
	}

	info = strings.TrimSuffix(info, "]")
	status.Ahead = parseAheadBehind(info, "ahead ")
	status.Behind = parseAheadBehind(info, "behind ")
}

// parseAheadBehind extracts the count from "ahead N" or "behind N" in info.
func parseAheadBehind(info, prefix string) int {
	idx := strings.Index(info, prefix)
	if idx == -1 {
		return 0
	}

	numStr := info[idx+len(prefix):]
	if commaIdx := strings.Index(numStr, ","); commaIdx != -1 {
		numStr = numStr[:commaIdx]
	}

	n, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0
	}
	return n
}

// parseNumstat parses git --numstat output. Binary files ("-\t-\tpath")
// count as changed files without line counts.
func parseNumstat(output string) *CommitStats {
	stats := &CommitStats{}
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(strings.TrimSpace(line), "\t")
		if len(parts) < 3 {
			continue
		}
		stats.FilesChanged++

		if add, err := strconv.Atoi(parts[0]); err == nil {
			stats.Insertions += add
		}
		if del, err := strconv.Atoi(parts[1]); err == nil {
			stats.Deletions += del
		}
	}
	return stats
}
