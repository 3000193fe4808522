// Package monitor counts tool uses during an automation session and
// periodically prints a git status banner so uncommitted work is noticed.
//
// The counter lives in its own small JSON file and never touches the
// session documents. Failing to load the counter falls back to a zero
// state; failing to save it is logged and otherwise ignored, so the
// monitor can never break the command that invoked it.
package monitor

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/domain"
	"github.com/mrz1836/waypoint/internal/git"
	"github.com/mrz1836/waypoint/internal/state"
)

// State is the persisted counter document. Field names are camelCase to
// stay compatible with existing counter files.
type State struct {
	ToolUseCount    int     `json:"toolUseCount"`
	LastStatusCheck *string `json:"lastStatusCheck"`
	LastToolUse     *string `json:"lastToolUse"`
}

// StatusSource provides the working tree status shown in the banner.
// git.Runner satisfies it.
type StatusSource interface {
	Status(ctx context.Context) (*git.Status, error)
}

// Monitor records tool uses and renders the git status banner.
type Monitor struct {
	path      string
	threshold int
	source    StatusSource
	out       io.Writer
	clock     clock.Clock
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithThreshold sets how many recorded tool uses trigger the banner.
func WithThreshold(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.threshold = n
		}
	}
}

// WithClock sets the clock used for counter timestamps.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) {
		m.clock = c
	}
}

// New creates a Monitor persisting its counter at path. source may be nil
// when the working directory is not a git repository; the banner then
// reports the problem instead of a status.
func New(path string, source StatusSource, out io.Writer, opts ...Option) *Monitor {
	m := &Monitor{
		path:      path,
		threshold: constants.DefaultMonitorThreshold,
		source:    source,
		out:       out,
		clock:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the number of tool uses that trigger the banner.
func (m *Monitor) Threshold() int {
	return m.threshold
}

// Record counts one tool use. When the count reaches the threshold the
// banner is printed and the counter starts over. It returns the count
// after recording.
func (m *Monitor) Record(ctx context.Context) int {
	st := m.State(ctx)
	now := m.now()

	st.ToolUseCount++
	st.LastToolUse = &now

	if st.ToolUseCount >= m.threshold {
		m.printBanner(ctx)
		st.ToolUseCount = 0
		checked := m.now()
		st.LastStatusCheck = &checked
	}

	m.save(ctx, st)
	return st.ToolUseCount
}

// Check prints the banner immediately and resets the counter.
func (m *Monitor) Check(ctx context.Context) {
	m.printBanner(ctx)
	m.Reset(ctx)
}

// Reset sets the counter to zero and records the time of the reset as the
// last status check.
func (m *Monitor) Reset(ctx context.Context) {
	st := m.State(ctx)
	st.ToolUseCount = 0
	now := m.now()
	st.LastStatusCheck = &now
	m.save(ctx, st)
}

// State loads the counter document, or a zero state when it is missing or
// unreadable.
func (m *Monitor) State(ctx context.Context) State {
	st, err := state.ReadJSON[State](ctx, m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("component", "monitor").
				Str("path", m.path).
				Msg("could not load monitor state")
		}
		return State{}
	}
	return *st
}

func (m *Monitor) save(ctx context.Context, st State) {
	if err := state.WriteJSON(ctx, m.path, st); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("component", "monitor").
			Str("path", m.path).
			Msg("could not save monitor state")
	}
}

func (m *Monitor) printBanner(ctx context.Context) {
	var (
		status *git.Status
		err    error
	)
	if m.source == nil {
		err = errNoRepository
	} else {
		status, err = m.source.Status(ctx)
	}
	_, _ = io.WriteString(m.out, Banner(status, err))
}

func (m *Monitor) now() string {
	return domain.FormatTimestamp(m.clock.Now())
}
