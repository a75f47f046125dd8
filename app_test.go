package lasers

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

type counterResource struct {
	calls []string
}

func TestApp_changeState(t *testing.T) {
	app := NewApp().UseStates(StateRunning, StateQuit)

	app.changeState(StateQuit)
	assert.Equal(t, StateQuit, app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(StateQuit)
	assert.Equal(t, StateQuit, app.State())
}

func TestApp_addResources(t *testing.T) {
	app := NewApp()

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := &MockResource2{name: "Resource2"}
	app.addResources(resource2)
	assert.Same(t, resource2, Resource[MockResource2](app))

	assert.Panics(t, func() { app.addResources(MockResource2{}) }, "non-pointer resources are rejected")
}

func TestApp_SystemsRunInStageOrder(t *testing.T) {
	app := NewApp()
	rec := &counterResource{}
	app.addResources(rec)

	app.UseSystem(System(func(r *counterResource) { r.calls = append(r.calls, "render") }).InStage(Render))
	app.UseSystem(System(func(r *counterResource) { r.calls = append(r.calls, "prelude") }).InStage(Prelude))
	app.UseSystem(System(func(r *counterResource) { r.calls = append(r.calls, "update") }))

	require.True(t, app.Step())
	assert.Equal(t, []string{"prelude", "update", "render"}, rec.calls)
}

func TestApp_UnresolvedSystemArgumentPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(r *MockResource1) {}))

	assert.Panics(t, func() { app.Step() })
}

func TestApp_StatefulRunReachesFinalState(t *testing.T) {
	app := NewApp().UseStates(StateRunning, StateQuit)
	rec := &counterResource{}
	app.addResources(rec)

	app.UseSystem(System(func(r *counterResource) { r.calls = append(r.calls, "enter") }).InState(OnEnter(StateRunning)))
	app.UseSystem(System(func(r *counterResource, cmd *Commands) {
		r.calls = append(r.calls, "execute")
		if len(r.calls) >= 3 {
			cmd.ChangeState(StateQuit)
		}
	}).InState(OnExecute(StateRunning)))
	app.UseSystem(System(func(r *counterResource) { r.calls = append(r.calls, "exit") }).InState(OnExit(StateRunning)))
	app.UseSystem(System(func(r *counterResource) { r.calls = append(r.calls, "quit") }).InState(OnEnter(StateQuit)))

	app.Run()

	assert.Equal(t, StateQuit, app.State())
	assert.Equal(t, []string{"enter", "execute", "execute", "exit", "quit"}, rec.calls)
	assert.False(t, app.Step())
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewApp()
	assert.PanicsWithValue(t, "Trying to use a stateful system in a stateless app.", func() {
		app.UseSystem(System(func() {}).InState(OnExecute(StateRunning)))
	})
}

func TestApp_UseStage(t *testing.T) {
	app := NewApp()
	custom := Stage{Name: "Physics"}
	app.UseStage(custom, AfterStage(Update))

	idx := -1
	for i, s := range app.stages {
		if s.Name == custom.Name {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 1)
	assert.Equal(t, Update.Name, app.stages[idx-1].Name)

	assert.Panics(t, func() { app.UseStage(Stage{Name: "X"}, BeforeStage(Stage{Name: "missing"})) })
}

func TestApp_CommandsAreFlushedBetweenStages(t *testing.T) {
	type marker struct{ n int }

	app := NewApp()
	seen := 0
	app.UseSystem(System(func(cmd *Commands) {
		if seen == 0 {
			cmd.AddEntity(marker{n: 7})
		}
	}).InStage(PreUpdate))
	app.UseSystem(System(func(cmd *Commands) {
		MakeQuery1[marker](cmd).Map(func(eid EntityId, m *marker) bool {
			seen = m.n
			return true
		})
	}).InStage(Update))

	app.Step()
	assert.Equal(t, 7, seen)
}

func TestTimeModuleFixedStep(t *testing.T) {
	app := NewApp()
	app.UseModules(TimeModule{Fixed: 50 * time.Millisecond})

	app.Step()
	app.Step()

	tm := Resource[Time](app)
	require.NotNil(t, tm)
	assert.Equal(t, uint64(2), tm.Frame)
	assert.Equal(t, 50*time.Millisecond, tm.Dt)
	assert.InDelta(t, 0.05, tm.Seconds(), 1e-6)
}

func TestLifecycleModuleStopsAfterBudget(t *testing.T) {
	app := NewAppBuilder().
		UseStates(StateRunning, StateQuit).
		UseModule(
			LoggingModule{Output: &discard{}},
			TimeModule{Fixed: 10 * time.Millisecond},
			LifecycleModule{MaxFrames: 5},
		).
		Build()

	app.Run()

	assert.Equal(t, StateQuit, app.State())
	assert.Equal(t, uint64(5), Resource[Time](app).Frame)
}

type scriptedKeys struct {
	frames [][]Key
}

func (s *scriptedKeys) PollKeys() []Key {
	if len(s.frames) == 0 {
		return nil
	}
	keys := s.frames[0]
	s.frames = s.frames[1:]
	return keys
}

func TestLifecycleModuleQuitsOnInput(t *testing.T) {
	src := &scriptedKeys{frames: [][]Key{nil, {KeyLeft}, {KeyQuit}}}
	app := NewAppBuilder().
		UseStates(StateRunning, StateQuit).
		UseModule(
			LoggingModule{Output: &discard{}},
			TimeModule{Fixed: 10 * time.Millisecond},
			InputModule{Source: src},
			LifecycleModule{},
		).
		Build()

	app.Run()

	assert.Equal(t, uint64(3), Resource[Time](app).Frame)
	assert.True(t, Resource[Input](app).QuitRequested)
}

func TestInputSystemTracksJustPressed(t *testing.T) {
	src := &scriptedKeys{frames: [][]Key{{KeyUp}, {KeyUp}, nil}}
	input := &Input{Source: src}

	inputSystem(input)
	assert.True(t, input.Pressed[KeyUp])
	assert.True(t, input.JustPressed[KeyUp])

	inputSystem(input)
	assert.True(t, input.Pressed[KeyUp])
	assert.False(t, input.JustPressed[KeyUp])

	inputSystem(input)
	assert.False(t, input.Pressed[KeyUp])
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
