// Package menu shows the owner's client list when the indicator is
// activated.
package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/beacon/internal/bus"
)

// ErrPresentation indicates the host failed to display the menu.
var ErrPresentation = errors.New("menu: presentation failed")

// Level is the severity of a user notice.
type Level string

const (
	// LevelInfo is an informational notice.
	LevelInfo Level = "info"
	// LevelError is an error notice.
	LevelError Level = "error"
)

// SelectOptions configures a selection list.
type SelectOptions struct {
	Title       string
	Placeholder string
}

// Presenter is the host's single-select list and notice capability.
type Presenter interface {
	// Select shows items and returns the chosen index, or -1 if cancelled.
	Select(items []string, opts SelectOptions) (int, error)

	// Notify shows a short notice.
	Notify(message string, level Level) error
}

// Reporter receives presentation failures.
type Reporter interface {
	LogError(event string, err error, kv ...any)
}

// FailureNotice is the generic message shown when the menu cannot be displayed.
const FailureNotice = "Unable to show active extensions."

// Menu presents the current registry membership.
type Menu struct {
	presenter Presenter
	members   func() []string
	reporter  Reporter
}

// New creates a menu that reads membership from members on every Show.
func New(presenter Presenter, members func() []string, reporter Reporter) *Menu {
	return &Menu{
		presenter: presenter,
		members:   members,
		reporter:  reporter,
	}
}

// Show presents the list and returns the selected client. It never panics
// and never returns an error; failures are reported and the user is shown
// FailureNotice.
func (m *Menu) Show(ctx context.Context) (selected string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.fail(fmt.Errorf("%w: panic: %v", ErrPresentation, r))
			selected, ok = "", false
		}
	}()

	if err := ctx.Err(); err != nil {
		m.fail(fmt.Errorf("%w: %w", ErrPresentation, err))
		return "", false
	}
	if m.presenter == nil {
		m.fail(fmt.Errorf("%w: no presenter", ErrPresentation))
		return "", false
	}

	items := m.members()
	if len(items) == 0 {
		_ = m.presenter.Notify("No extensions are active.", LevelInfo)
		return "", false
	}

	idx, err := m.presenter.Select(items, SelectOptions{
		Title:       title(len(items)),
		Placeholder: "Active extensions",
	})
	if err != nil {
		m.fail(fmt.Errorf("%w: %w", ErrPresentation, err))
		return "", false
	}
	if idx < 0 || idx >= len(items) {
		return "", false
	}
	return items[idx], true
}

// Handler adapts Show to a bus endpoint. The handler returns the selected
// client id, or nil when nothing was chosen.
func (m *Menu) Handler() bus.Handler {
	return func(ctx context.Context, _ ...any) (any, error) {
		if id, ok := m.Show(ctx); ok {
			return id, nil
		}
		return nil, nil
	}
}

func (m *Menu) fail(err error) {
	if m.reporter != nil {
		m.reporter.LogError("menu.show", err)
	}
	if m.presenter == nil {
		return
	}
	func() {
		defer func() { _ = recover() }()
		_ = m.presenter.Notify(FailureNotice, LevelError)
	}()
}

func title(n int) string {
	if n == 1 {
		return "1 active extension"
	}
	return fmt.Sprintf("%d active extensions", n)
}
