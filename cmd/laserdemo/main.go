package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gekko3d/lasers"
	"github.com/gekko3d/lasers/rt/raster"
	"github.com/gekko3d/lasers/rt/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := lasers.ParseConfig()
	if err != nil {
		return err
	}

	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "Output backend: 'png' or 'term'")
	flag.Uint64Var(&cfg.Frames, "frames", cfg.Frames, "Frames to run, 0 runs until quit")
	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "Target frames per second")
	flag.DurationVar(&cfg.FixedStep, "fixed-step", cfg.FixedStep, "Advance time by this much per frame instead of the wall clock")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "PNG width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "PNG height")
	flag.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "PNG output directory")
	flag.IntVar(&cfg.FrameStride, "stride", cfg.FrameStride, "Write every Nth frame as PNG")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "glTF or GLB model to load as the interactive target")
	flag.StringVar(&cfg.PresetPath, "preset", cfg.PresetPath, "Scene preset JSON")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed, 0 picks one from the clock")
	flag.IntVar(&cfg.MaxBounces, "bounces", cfg.MaxBounces, "Maximum reflections per beam")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Debug logging")
	savePreset := flag.String("save-preset", "", "Write the scene definition to this file and exit")
	exportGLB := flag.String("export-glb", "", "Write the built scene geometry as GLB to this file and exit")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var def lasers.SceneDef
	switch {
	case cfg.PresetPath != "":
		if def, err = lasers.LoadPreset(cfg.PresetPath); err != nil {
			return err
		}
	case cfg.ModelPath == "":
		def = lasers.DefaultSceneDef()
	}
	if cfg.ModelPath != "" {
		def.ModelPath = cfg.ModelPath
		def.ModelScale = cfg.ModelScale
	}
	if *savePreset != "" {
		return lasers.SavePreset(def, *savePreset)
	}
	if *exportGLB != "" {
		state, err := lasers.BuildScene(def)
		if err != nil {
			return err
		}
		return lasers.ExportScene(state, *exportGLB)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	var (
		canvas lasers.Canvas
		input  lasers.InputSource
		logOut io.Writer
	)
	switch cfg.Backend {
	case lasers.BackendTerm:
		tc, err := term.New()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		defer tc.Close()
		canvas = tc
		input = termKeys{tc}
		// The terminal owns stdout while running
		logOut = io.Discard
		if cfg.Debug {
			f, err := os.Create("laserdemo.log")
			if err != nil {
				return fmt.Errorf("open log: %w", err)
			}
			defer f.Close()
			logOut = f
		}
	default:
		rc := raster.New(cfg.Width, cfg.Height)
		rc.OutputDir = cfg.OutputDir
		rc.Stride = cfg.FrameStride
		canvas = rc
	}

	orbit := lasers.NewOrbitCamera()
	orbit.AutoRotateSpeed = cfg.OrbitSpeed

	app := lasers.NewAppBuilder().
		UseStates(lasers.StateRunning, lasers.StateQuit).
		UseModule(
			lasers.LoggingModule{Prefix: "laserdemo", Debug: cfg.Debug, Output: logOut},
			lasers.TimeModule{Fixed: cfg.FixedStep, TargetFrame: cfg.FrameTime()},
			lasers.InputModule{Source: input},
			lasers.CameraModule{Orbit: orbit},
			lasers.SceneModule{Def: def},
			lasers.LaserModule{Settings: cfg.LaserSettings(), Rand: rng},
			lasers.RenderModule{Canvas: canvas, ShowHUD: true},
			lasers.LifecycleModule{MaxFrames: cfg.Frames},
		).
		Build()

	app.Logger().Infof("backend %s, seed %d, %d frames", cfg.Backend, seed, cfg.Frames)
	app.Run()
	return nil
}

// termKeys adapts terminal actions to app keys.
type termKeys struct {
	c *term.Canvas
}

func (k termKeys) PollKeys() []lasers.Key {
	actions := k.c.PollActions()
	keys := make([]lasers.Key, 0, len(actions))
	for _, a := range actions {
		switch a {
		case term.ActionLeft:
			keys = append(keys, lasers.KeyLeft)
		case term.ActionRight:
			keys = append(keys, lasers.KeyRight)
		case term.ActionUp:
			keys = append(keys, lasers.KeyUp)
		case term.ActionDown:
			keys = append(keys, lasers.KeyDown)
		case term.ActionZoomIn:
			keys = append(keys, lasers.KeyZoomIn)
		case term.ActionZoomOut:
			keys = append(keys, lasers.KeyZoomOut)
		case term.ActionQuit:
			keys = append(keys, lasers.KeyQuit)
		}
	}
	return keys
}
