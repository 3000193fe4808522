package git

import "context"

// Runner is the subset of git the session tracker needs.
// All operations run in the runner's working directory.
type Runner interface {
	// Status returns the working tree status including branch tracking info.
	Status(ctx context.Context) (*Status, error)

	// CurrentBranch returns the checked out branch name.
	// Returns an error in detached HEAD state.
	CurrentBranch(ctx context.Context) (string, error)

	// HeadCommit returns the abbreviated hash of HEAD.
	HeadCommit(ctx context.Context) (string, error)

	// LastCommitStats returns the diff stats of the HEAD commit.
	LastCommitStats(ctx context.Context) (*CommitStats, error)
}
