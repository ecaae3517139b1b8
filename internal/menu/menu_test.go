package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notice struct {
	message string
	level   Level
}

type fakePresenter struct {
	choice      int
	selectErr   error
	selectPanic bool
	shown       [][]string
	titles      []string
	notices     []notice
}

func (p *fakePresenter) Select(items []string, opts SelectOptions) (int, error) {
	if p.selectPanic {
		panic("widget crashed")
	}
	p.shown = append(p.shown, items)
	p.titles = append(p.titles, opts.Title)
	return p.choice, p.selectErr
}

func (p *fakePresenter) Notify(message string, level Level) error {
	p.notices = append(p.notices, notice{message, level})
	return nil
}

type fakeReporter struct {
	events []string
	errs   []error
}

func (r *fakeReporter) LogError(event string, err error, _ ...any) {
	r.events = append(r.events, event)
	r.errs = append(r.errs, err)
}

func staticMembers(ids ...string) func() []string {
	return func() []string { return ids }
}

func TestMenu_SelectsMember(t *testing.T) {
	p := &fakePresenter{choice: 1}
	m := New(p, staticMembers("x-a", "x-b"), nil)

	id, ok := m.Show(context.Background())
	require.True(t, ok)
	assert.Equal(t, "x-b", id)
	assert.Equal(t, [][]string{{"x-a", "x-b"}}, p.shown)
	assert.Equal(t, []string{"2 active extensions"}, p.titles)
}

func TestMenu_Cancelled(t *testing.T) {
	p := &fakePresenter{choice: -1}
	m := New(p, staticMembers("x-a"), nil)

	_, ok := m.Show(context.Background())
	assert.False(t, ok)
	assert.Empty(t, p.notices)
}

func TestMenu_EmptyRegistryNotifies(t *testing.T) {
	p := &fakePresenter{}
	m := New(p, staticMembers(), nil)

	_, ok := m.Show(context.Background())
	assert.False(t, ok)
	assert.Empty(t, p.shown)
	require.Len(t, p.notices, 1)
	assert.Equal(t, LevelInfo, p.notices[0].level)
}

func TestMenu_FailuresBecomeGenericNotice(t *testing.T) {
	tests := []struct {
		name      string
		presenter *fakePresenter
	}{
		{"select error", &fakePresenter{selectErr: errors.New("no ui")}},
		{"select panic", &fakePresenter{selectPanic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReporter{}
			m := New(tt.presenter, staticMembers("x-a"), r)

			var ok bool
			assert.NotPanics(t, func() { _, ok = m.Show(context.Background()) })
			assert.False(t, ok)

			require.Len(t, r.errs, 1)
			assert.ErrorIs(t, r.errs[0], ErrPresentation)
			assert.Equal(t, "menu.show", r.events[0])

			require.Len(t, tt.presenter.notices, 1)
			assert.Equal(t, FailureNotice, tt.presenter.notices[0].message)
			assert.Equal(t, LevelError, tt.presenter.notices[0].level)
		})
	}
}

func TestMenu_NilPresenter(t *testing.T) {
	r := &fakeReporter{}
	m := New(nil, staticMembers("x-a"), r)

	_, ok := m.Show(context.Background())
	assert.False(t, ok)
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], ErrPresentation)
}

func TestMenu_Handler(t *testing.T) {
	p := &fakePresenter{choice: 0}
	m := New(p, staticMembers("only"), nil)

	v, err := m.Handler()(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only", v)

	p.choice = -1
	v, err = m.Handler()(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v)
}
