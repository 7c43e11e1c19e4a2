package ffmpeg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// scaleEpsilon is the band around 1.0 inside which the scale filter is
// treated as a no-op and omitted from the filter chain.
const scaleEpsilon = 0.0001

var (
	fpsChoices     = []float64{23.976, 24, 25, 29.97, 30, 30.01, 50, 59.94, 60}
	presetChoices  = []string{"slower", "slow", "medium"}
	bitrateChoices = []string{"192k", "256k", "320k"}
	pixFmtChoices  = []string{"yuv420p", "yuv420p10le"}
)

// Recipe holds the full set of encode parameters for one copy. Every field
// is drawn from a range narrow enough to be imperceptible to a viewer while
// still changing the compressed bitstream.
type Recipe struct {
	CopyNumber   int
	FPS          float64
	CRF          int
	Preset       string
	ScaleFactor  float64
	GOPSize      int
	AudioBitrate string
	AudioVolume  float64
	PixelFormat  string
	BFrames      int
	RefFrames    int
	CropOffsetX  float64
	CropOffsetY  float64
	CreationTime string
	EncoderTag   string
	Comment      string
	Title        string
	UniqueID     string
}

// ScaleIsNoop reports whether the scale factor rounds to a no-op. The
// crop+pad steps are applied regardless, so every copy still undergoes at
// least one pixel-level transform.
func (r Recipe) ScaleIsNoop() bool {
	d := r.ScaleFactor - 1.0
	if d < 0 {
		d = -d
	}
	return d <= scaleEpsilon
}

// RecipeGenerator produces encode recipes for one task. Recipes are
// deterministic: the PRNG is seeded from (taskID, copyNumber), so the same
// generator always returns an identical recipe for a given copy, while two
// tasks over the same input never share recipes.
type RecipeGenerator struct {
	taskID string
	base   time.Time
}

func NewRecipeGenerator(taskID string) *RecipeGenerator {
	return &RecipeGenerator{
		taskID: taskID,
		base:   time.Now().UTC(),
	}
}

// Generate returns the recipe for one copy. The draw order below is fixed;
// reordering draws changes every recipe the generator produces.
func (g *RecipeGenerator) Generate(copyNumber, totalCopies int) Recipe {
	rng := rand.New(rand.NewSource(recipeSeed(g.taskID, copyNumber)))

	fps := fpsChoices[rng.Intn(len(fpsChoices))] + (rng.Float64()*0.002 - 0.001)
	crf := 17 + rng.Intn(7)
	preset := presetChoices[rng.Intn(len(presetChoices))]
	scale := 1.0 + (rng.Float64()*0.01 - 0.005)
	gop := 240 + rng.Intn(21)
	bitrate := bitrateChoices[rng.Intn(len(bitrateChoices))]
	volume := 1.0 + (rng.Float64()*0.006 - 0.003)
	pixFmt := pixFmtChoices[rng.Intn(len(pixFmtChoices))]
	bFrames := 2 + rng.Intn(3)
	refFrames := 3 + rng.Intn(3)
	cropX := rng.Float64() - 0.5
	cropY := rng.Float64() - 0.5

	// Synthetic creation time, offset per copy so no two copies in a task
	// share a metadata timestamp.
	creation := g.base.Add(time.Duration(copyNumber) * time.Second)

	// Content hash keeps the metadata block unique even if every sampled
	// numeric parameter collides between two copies.
	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"%s_%d_%d_%.17f", g.taskID, copyNumber, creation.UnixNano(), rng.Float64(),
	)))

	return Recipe{
		CopyNumber:   copyNumber,
		FPS:          fps,
		CRF:          crf,
		Preset:       preset,
		ScaleFactor:  scale,
		GOPSize:      gop,
		AudioBitrate: bitrate,
		AudioVolume:  volume,
		PixelFormat:  pixFmt,
		BFrames:      bFrames,
		RefFrames:    refFrames,
		CropOffsetX:  cropX,
		CropOffsetY:  cropY,
		CreationTime: creation.Format(time.RFC3339),
		EncoderTag:   fmt.Sprintf("UniqueEncoder_v%d", copyNumber),
		Comment:      fmt.Sprintf("Unique_Copy_%d", copyNumber),
		Title:        fmt.Sprintf("Video_%03d", copyNumber),
		UniqueID:     hex.EncodeToString(sum[:]),
	}
}

func recipeSeed(taskID string, copyNumber int) int64 {
	h := fnv.New64a()
	h.Write([]byte(taskID))
	fmt.Fprintf(h, ":%d", copyNumber)
	return int64(h.Sum64())
}
