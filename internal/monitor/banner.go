package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/git"
)

var errNoRepository = errors.New("not a git repository")

// Banner renders the git status banner. When err is non-nil the banner
// reports the error in place of the status.
func Banner(status *git.Status, err error) string {
	rule := strings.Repeat("=", constants.MonitorBannerWidth)

	var sb strings.Builder
	sb.WriteString("\n" + rule + "\n")
	sb.WriteString("📊 GIT STATUS MONITOR\n")
	sb.WriteString(rule + "\n")

	if err != nil || status == nil {
		if err == nil {
			err = errNoRepository
		}
		sb.WriteString("⚠️  Error: " + err.Error() + "\n")
		sb.WriteString(rule + "\n\n")
		return sb.String()
	}

	sb.WriteString(shortStatus(status) + "\n")

	if status.Ahead > 0 {
		fmt.Fprintf(&sb, "\n⬆️  %d commit(s) ahead of remote - Consider pushing\n", status.Ahead)
	}
	if status.Behind > 0 {
		fmt.Fprintf(&sb, "\n⬇️  %d commit(s) behind remote - Consider pulling\n", status.Behind)
	}

	staged, modified, untracked := len(status.Staged), len(status.Unstaged), len(status.Untracked)
	if staged+modified+untracked > 0 {
		sb.WriteString("\n📝 Uncommitted changes detected:\n")
		if staged > 0 {
			fmt.Fprintf(&sb, "   - %d file(s) staged for commit\n", staged)
		}
		if modified > 0 {
			fmt.Fprintf(&sb, "   - %d file(s) modified but not staged\n", modified)
		}
		if untracked > 0 {
			fmt.Fprintf(&sb, "   - %d untracked file(s)\n", untracked)
		}
		sb.WriteString("\n💡 Consider creating a checkpoint: waypoint checkpoint add\n")
	}

	sb.WriteString(rule + "\n\n")
	return sb.String()
}

// shortStatus renders status in the layout of git status --short --branch.
func shortStatus(s *git.Status) string {
	header := "## " + s.Branch
	if s.Upstream != "" {
		header += "..." + s.Upstream
		var info []string
		if s.Ahead > 0 {
			info = append(info, fmt.Sprintf("ahead %d", s.Ahead))
		}
		if s.Behind > 0 {
			info = append(info, fmt.Sprintf("behind %d", s.Behind))
		}
		if len(info) > 0 {
			header += " [" + strings.Join(info, ", ") + "]"
		}
	}

	lines := []string{header}
	codes := map[string][2]byte{}
	var order []string
	mark := func(path string, col int, code git.ChangeType) {
		if code == "" {
			return
		}
		if _, ok := codes[path]; !ok {
			codes[path] = [2]byte{' ', ' '}
			order = append(order, path)
		}
		c := codes[path]
		c[col] = code[0]
		codes[path] = c
	}
	for _, f := range s.Staged {
		mark(displayPath(f), 0, f.Status)
	}
	for _, f := range s.Unstaged {
		mark(displayPath(f), 1, f.Status)
	}
	for _, path := range order {
		c := codes[path]
		lines = append(lines, string(c[:])+" "+path)
	}
	for _, path := range s.Untracked {
		lines = append(lines, "?? "+path)
	}
	return strings.Join(lines, "\n")
}

func displayPath(f git.FileChange) string {
	if f.OldPath != "" {
		return f.OldPath + " -> " + f.Path
	}
	return f.Path
}
