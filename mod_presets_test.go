package lasers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetSerialization(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "preset.json")

	def := DefaultSceneDef()
	def.Meshes[0].Rotation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	def.ModelPath = "models/figure.glb"
	def.ModelScale = 2

	require.NoError(t, SavePreset(def, testFile))

	loaded, err := LoadPreset(testFile)
	require.NoError(t, err)

	assert.Equal(t, def.ModelPath, loaded.ModelPath)
	assert.Equal(t, def.ModelScale, loaded.ModelScale)
	require.Len(t, loaded.Meshes, len(def.Meshes))
	assert.Equal(t, ShapeBox, loaded.Meshes[0].Shape)
	assert.InDelta(t, def.Meshes[0].Rotation.W, loaded.Meshes[0].Rotation.W, 1e-6)
	require.Len(t, loaded.Meshes[0].Children, 1)
	assert.Equal(t, "head", loaded.Meshes[0].Children[0].Name)
	assert.True(t, loaded.Meshes[0].Children[0].Interactive)
}

func TestLoadPresetErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPreset(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadPreset(bad)
	assert.Error(t, err)

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version": 99, "scene": {"meshes": []}}`), 0644))
	_, err = LoadPreset(future)
	assert.ErrorContains(t, err, "unsupported version")
}
