// Package term draws projected line work into terminal cells with tcell and
// turns key presses into camera actions.
package term

import (
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/lasers/rt/core"
)

type Action int

const (
	ActionLeft Action = iota
	ActionRight
	ActionUp
	ActionDown
	ActionZoomIn
	ActionZoomOut
	ActionQuit
)

// Terminal cells are about twice as tall as they are wide.
const cellAspect = 2

type Canvas struct {
	screen tcell.Screen

	mu      sync.Mutex
	pending []Action
	done    chan struct{}
}

// New opens and initialises the real terminal.
func New() (*Canvas, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen)
}

// NewWithScreen takes ownership of screen, initialises it and starts reading
// its events.
func NewWithScreen(screen tcell.Screen) (*Canvas, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()

	c := &Canvas{screen: screen, done: make(chan struct{})}
	go c.pollEvents()
	return c, nil
}

func (c *Canvas) pollEvents() {
	defer close(c.done)
	for {
		ev := c.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if a, ok := actionFor(ev); ok {
				c.mu.Lock()
				c.pending = append(c.pending, a)
				c.mu.Unlock()
			}
		case *tcell.EventResize:
			c.screen.Sync()
		}
	}
}

func actionFor(ev *tcell.EventKey) (Action, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return ActionLeft, true
	case tcell.KeyRight:
		return ActionRight, true
	case tcell.KeyUp:
		return ActionUp, true
	case tcell.KeyDown:
		return ActionDown, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return ActionQuit, true
		case '+', '=':
			return ActionZoomIn, true
		case '-', '_':
			return ActionZoomOut, true
		case 'h':
			return ActionLeft, true
		case 'l':
			return ActionRight, true
		case 'k':
			return ActionUp, true
		case 'j':
			return ActionDown, true
		}
	}
	return 0, false
}

// PollActions returns the actions read since the previous call.
func (c *Canvas) PollActions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

func (c *Canvas) Viewport() core.Viewport {
	w, h := c.screen.Size()
	return core.Viewport{Width: w, Height: h, PixelAspect: cellAspect}
}

func (c *Canvas) Clear(bg core.Color) {
	c.screen.SetStyle(tcell.StyleDefault.Background(toTcell(bg)))
	c.screen.Clear()
}

// DrawLine plots a segment over whole cells. Transparent colours draw nothing.
func (c *Canvas) DrawLine(x0, y0, x1, y1 float32, col core.Color) {
	if !col.Visible() {
		return
	}
	w, h := c.screen.Size()
	style := tcell.StyleDefault.Foreground(toTcell(col))
	glyph := glyphFor(x1-x0, y1-y0)

	dx, dy := float64(x1-x0), float64(y1-y0)
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps > 4*(w+h) || math.IsNaN(dx) || math.IsNaN(dy) {
		steps = 4 * (w + h)
	}
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := int(math.Floor(float64(x0) + dx*t))
		y := int(math.Floor(float64(y0) + dy*t))
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		c.screen.SetContent(x, y, glyph, nil, style)
	}
}

func glyphFor(dx, dy float32) rune {
	adx := math.Abs(float64(dx))
	ady := math.Abs(float64(dy)) * cellAspect
	switch {
	case adx > 2*ady:
		return '-'
	case ady > 2*adx:
		return '|'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

func (c *Canvas) DrawHUD(lines []string, col core.Color) {
	style := tcell.StyleDefault.Foreground(toTcell(col))
	w, _ := c.screen.Size()
	for row, line := range lines {
		x := 0
		for _, r := range line {
			if x >= w {
				break
			}
			c.screen.SetContent(x, row, r, nil, style)
			x++
		}
	}
}

func (c *Canvas) Present(frame uint64) error {
	c.screen.Show()
	return nil
}

// Close restores the terminal and waits for the event reader to stop.
func (c *Canvas) Close() {
	c.screen.Fini()
	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
}

func toTcell(col core.Color) tcell.Color {
	px := col.RGBA()
	return tcell.NewRGBColor(int32(px.R), int32(px.G), int32(px.B))
}
