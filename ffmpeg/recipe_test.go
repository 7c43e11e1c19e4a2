package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeGenerator_Deterministic(t *testing.T) {
	gen := NewRecipeGenerator("task-abc")

	for i := 1; i <= 100; i++ {
		first := gen.Generate(i, 100)
		second := gen.Generate(i, 100)
		require.Equal(t, first, second, "copy %d produced two different recipes", i)
	}
}

func TestRecipeGenerator_UniqueIDsDiffer(t *testing.T) {
	gen := NewRecipeGenerator("task-abc")

	seen := make(map[string]int)
	for i := 1; i <= 100; i++ {
		r := gen.Generate(i, 100)
		require.Len(t, r.UniqueID, 64)
		if prev, ok := seen[r.UniqueID]; ok {
			t.Fatalf("copies %d and %d share unique id %s", prev, i, r.UniqueID)
		}
		seen[r.UniqueID] = i
	}
}

func TestRecipeGenerator_DistinctTasksDistinctRecipes(t *testing.T) {
	a := NewRecipeGenerator("task-a").Generate(1, 3)
	b := NewRecipeGenerator("task-b").Generate(1, 3)
	assert.NotEqual(t, a.UniqueID, b.UniqueID)
}

func TestRecipeGenerator_FieldRanges(t *testing.T) {
	gen := NewRecipeGenerator("ranges")

	for i := 1; i <= 100; i++ {
		r := gen.Generate(i, 100)

		assert.GreaterOrEqual(t, r.CRF, 17)
		assert.LessOrEqual(t, r.CRF, 23)
		assert.Contains(t, presetChoices, r.Preset)
		assert.InDelta(t, 1.0, r.ScaleFactor, 0.005)
		assert.GreaterOrEqual(t, r.GOPSize, 240)
		assert.LessOrEqual(t, r.GOPSize, 260)
		assert.Contains(t, bitrateChoices, r.AudioBitrate)
		assert.InDelta(t, 1.0, r.AudioVolume, 0.003)
		assert.Contains(t, pixFmtChoices, r.PixelFormat)
		assert.GreaterOrEqual(t, r.BFrames, 2)
		assert.LessOrEqual(t, r.BFrames, 4)
		assert.GreaterOrEqual(t, r.RefFrames, 3)
		assert.LessOrEqual(t, r.RefFrames, 5)
		assert.GreaterOrEqual(t, r.CropOffsetX, -0.5)
		assert.Less(t, r.CropOffsetX, 0.5)
		assert.GreaterOrEqual(t, r.CropOffsetY, -0.5)
		assert.Less(t, r.CropOffsetY, 0.5)

		// FPS must sit within the micro-offset band of one of the bases.
		within := false
		for _, base := range fpsChoices {
			d := r.FPS - base
			if d < 0 {
				d = -d
			}
			if d < 0.002 {
				within = true
				break
			}
		}
		assert.True(t, within, "fps %f is not near any base rate", r.FPS)
	}
}

func TestRecipe_ScaleIsNoop(t *testing.T) {
	assert.True(t, Recipe{ScaleFactor: 1.0}.ScaleIsNoop())
	assert.True(t, Recipe{ScaleFactor: 1.00005}.ScaleIsNoop())
	assert.False(t, Recipe{ScaleFactor: 1.003}.ScaleIsNoop())
	assert.False(t, Recipe{ScaleFactor: 0.997}.ScaleIsNoop())
}
