package lasers

import (
	"encoding/json"
	"fmt"
	"os"
)

type PresetData struct {
	Version int      `json:"version"`
	Scene   SceneDef `json:"scene"`
}

const presetVersion = 1

func SavePreset(def SceneDef, filename string) error {
	bytes, err := json.MarshalIndent(PresetData{Version: presetVersion, Scene: def}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	if err := os.WriteFile(filename, bytes, 0644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	return nil
}

func LoadPreset(filename string) (SceneDef, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return SceneDef{}, fmt.Errorf("read preset: %w", err)
	}

	var preset PresetData
	if err := json.Unmarshal(bytes, &preset); err != nil {
		return SceneDef{}, fmt.Errorf("decode preset %s: %w", filename, err)
	}
	if preset.Version > presetVersion {
		return SceneDef{}, fmt.Errorf("preset %s: unsupported version %d", filename, preset.Version)
	}
	return preset.Scene, nil
}
