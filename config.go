package lasers

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendPNG  = "png"
	BackendTerm = "term"
)

// Config controls the demo. Every field can be set from a LASERS_* variable.
type Config struct {
	Backend     string        `env:"LASERS_BACKEND"      envDefault:"png"`
	Frames      uint64        `env:"LASERS_FRAMES"       envDefault:"120"`
	FPS         int           `env:"LASERS_FPS"          envDefault:"30"`
	FixedStep   time.Duration `env:"LASERS_FIXED_STEP"`
	Width       int           `env:"LASERS_WIDTH"        envDefault:"640"`
	Height      int           `env:"LASERS_HEIGHT"       envDefault:"480"`
	OutputDir   string        `env:"LASERS_OUTPUT_DIR"   envDefault:"frames"`
	FrameStride int           `env:"LASERS_FRAME_STRIDE" envDefault:"10"`
	ModelPath   string        `env:"LASERS_MODEL"`
	ModelScale  float32       `env:"LASERS_MODEL_SCALE"  envDefault:"2"`
	PresetPath  string        `env:"LASERS_PRESET"`
	Seed        uint64        `env:"LASERS_SEED"`
	MaxBounces  int           `env:"LASERS_MAX_BOUNCES"  envDefault:"3"`
	MaxLength   float32       `env:"LASERS_MAX_LENGTH"   envDefault:"20"`
	OrbitSpeed  float32       `env:"LASERS_ORBIT_SPEED"  envDefault:"0.2"`
	Debug       bool          `env:"LASERS_DEBUG"`
}

// ParseConfig reads Config from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Backend != BackendPNG && c.Backend != BackendTerm {
		errs = append(errs, fmt.Errorf("backend %q: want %q or %q", c.Backend, BackendPNG, BackendTerm))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.Backend == BackendPNG && (c.Width <= 0 || c.Height <= 0) {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	if c.MaxBounces < 0 {
		errs = append(errs, fmt.Errorf("max bounces must not be negative, got %d", c.MaxBounces))
	}
	if c.MaxLength <= 0 {
		errs = append(errs, fmt.Errorf("max length must be positive, got %g", c.MaxLength))
	}
	return errors.Join(errs...)
}

// FrameTime is the target duration of one frame.
func (c Config) FrameTime() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}

// LaserSettings derives the rig settings from the config.
func (c Config) LaserSettings() LaserSettings {
	s := DefaultLaserSettings()
	s.MaxBounces = c.MaxBounces
	s.MaxLength = c.MaxLength
	return s
}
