package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/beacon/internal/menu"
)

var (
	stylePicker   = tcell.StyleDefault
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleHint     = tcell.StyleDefault.Dim(true)
)

// Picker implements menu.Presenter as a modal list on the status bar's
// screen.
type Picker struct {
	bar *StatusBar
}

// NewPicker creates a picker sharing bar's screen.
func NewPicker(bar *StatusBar) *Picker {
	return &Picker{bar: bar}
}

// Select shows items and blocks until one is chosen with Enter or the list
// is dismissed with Esc. Dismissal returns -1.
func (p *Picker) Select(items []string, opts menu.SelectOptions) (int, error) {
	screen := p.bar.screen
	selected := 0

	defer func() {
		screen.Clear()
		p.bar.Draw()
	}()

	for {
		p.draw(items, opts, selected)

		ev := screen.PollEvent()
		if ev == nil {
			return -1, nil
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			if _, resized := ev.(*tcell.EventResize); resized {
				screen.Sync()
			}
			continue
		}

		switch key.Key() {
		case tcell.KeyUp, tcell.KeyCtrlP:
			if selected > 0 {
				selected--
			}
		case tcell.KeyDown, tcell.KeyCtrlN:
			if selected < len(items)-1 {
				selected++
			}
		case tcell.KeyHome:
			selected = 0
		case tcell.KeyEnd:
			selected = len(items) - 1
		case tcell.KeyEnter:
			if len(items) == 0 {
				return -1, nil
			}
			return selected, nil
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return -1, nil
		case tcell.KeyRune:
			switch key.Rune() {
			case 'k':
				if selected > 0 {
					selected--
				}
			case 'j':
				if selected < len(items)-1 {
					selected++
				}
			case 'q':
				return -1, nil
			}
		}
	}
}

// Notify implements menu.Presenter.
func (p *Picker) Notify(message string, level menu.Level) error {
	p.bar.SetNotice(message, level)
	return nil
}

func (p *Picker) draw(items []string, opts menu.SelectOptions, selected int) {
	screen := p.bar.screen
	width, height := screen.Size()

	inner := runewidth.StringWidth(opts.Title) + 2
	if w := runewidth.StringWidth(opts.Placeholder); w > inner {
		inner = w
	}
	for _, item := range items {
		if w := runewidth.StringWidth(item) + 2; w > inner {
			inner = w
		}
	}
	boxW := inner + 2
	boxH := len(items) + 3
	if boxW > width {
		boxW = width
	}
	left := (width - boxW) / 2
	top := (height - boxH) / 2
	if top < 0 {
		top = 0
	}
	right := left + boxW - 1
	bottom := top + boxH - 1

	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			screen.SetContent(x, y, ' ', nil, stylePicker)
		}
	}
	for x := left + 1; x < right; x++ {
		screen.SetContent(x, top, tcell.RuneHLine, nil, stylePicker)
		screen.SetContent(x, bottom, tcell.RuneHLine, nil, stylePicker)
	}
	for y := top + 1; y < bottom; y++ {
		screen.SetContent(left, y, tcell.RuneVLine, nil, stylePicker)
		screen.SetContent(right, y, tcell.RuneVLine, nil, stylePicker)
	}
	screen.SetContent(left, top, tcell.RuneULCorner, nil, stylePicker)
	screen.SetContent(right, top, tcell.RuneURCorner, nil, stylePicker)
	screen.SetContent(left, bottom, tcell.RuneLLCorner, nil, stylePicker)
	screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, stylePicker)

	if opts.Title != "" {
		drawString(screen, left+2, top, right, opts.Title, stylePicker)
	}
	drawString(screen, left+1, top+1, right, opts.Placeholder, styleHint)
	for i, item := range items {
		style := stylePicker
		if i == selected {
			style = styleSelected
		}
		drawString(screen, left+1, top+2+i, right, " "+item+" ", style)
	}
	screen.Show()
}
