package lasers

// LifecycleModule moves the app from StateRunning to StateQuit once the frame
// budget is spent or the input layer asks to quit. It needs UseStates.
type LifecycleModule struct {
	// MaxFrames of 0 runs until a quit is requested.
	MaxFrames uint64
}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	lc := &lifecycle{maxFrames: mod.MaxFrames}
	app.UseSystem(
		System(lc.system).
			InStage(Finale).
			InState(OnExecute(StateRunning)),
	)
}

type lifecycle struct {
	maxFrames uint64
}

func (lc *lifecycle) system(time *Time, cmd *Commands) {
	if input := Resource[Input](cmd.app); input != nil && input.QuitRequested {
		cmd.Logger().Infof("quit requested at frame %d", time.Frame)
		cmd.ChangeState(StateQuit)
		return
	}
	if lc.maxFrames > 0 && time.Frame >= lc.maxFrames {
		cmd.Logger().Infof("frame budget of %d reached", lc.maxFrames)
		cmd.ChangeState(StateQuit)
	}
}
