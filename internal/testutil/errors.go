// Package testutil provides shared test helpers for waypoint.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors returned by fake git runners and status sources.
var (
	// ErrMockDetachedHead simulates rev-parse on a detached HEAD.
	ErrMockDetachedHead = errors.New("detached HEAD")

	// ErrMockNoCommits simulates git show in a repository without commits.
	ErrMockNoCommits = errors.New("no commits yet")

	// ErrMockGitStatus simulates a failing git status.
	ErrMockGitStatus = errors.New("git status failed")
)
