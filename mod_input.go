package lasers

type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyUp
	KeyDown
	KeyZoomIn
	KeyZoomOut
	KeyQuit
	keyCount
)

// InputSource yields the keys pressed since the previous poll. Terminal
// backends report key events without releases, so a key counts as held for
// the frame it was reported in.
type InputSource interface {
	PollKeys() []Key
}

type Input struct {
	Pressed     [keyCount]bool
	JustPressed [keyCount]bool

	QuitRequested bool
	Source        InputSource
}

type InputModule struct {
	Source InputSource
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{Source: mod.Source})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func inputSystem(input *Input) {
	var seen [keyCount]bool
	if input.Source != nil {
		for _, k := range input.Source.PollKeys() {
			if k >= 0 && k < keyCount {
				seen[k] = true
			}
		}
	}

	for k := Key(0); k < keyCount; k++ {
		input.JustPressed[k] = seen[k] && !input.Pressed[k]
		input.Pressed[k] = seen[k]
	}

	if input.Pressed[KeyQuit] {
		input.QuitRequested = true
	}
}
