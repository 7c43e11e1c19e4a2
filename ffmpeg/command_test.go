package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecipe() Recipe {
	return Recipe{
		CopyNumber:   2,
		FPS:          29.9703,
		CRF:          19,
		Preset:       "slow",
		ScaleFactor:  1.003,
		GOPSize:      250,
		AudioBitrate: "256k",
		AudioVolume:  1.0015,
		PixelFormat:  "yuv420p",
		BFrames:      3,
		RefFrames:    4,
		CropOffsetX:  0.25,
		CropOffsetY:  -0.125,
		CreationTime: "2026-01-02T03:04:05Z",
		EncoderTag:   "UniqueEncoder_v2",
		Comment:      "Unique_Copy_2",
		Title:        "Video_002",
		UniqueID:     "deadbeef",
	}
}

// argValue returns the argument following the first occurrence of flag.
func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag {
			require.Less(t, i+1, len(args), "flag %s has no value", flag)
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestBuildArgs_Skeleton(t *testing.T) {
	args := BuildArgs("/in/src.mp4", "/out/video_002.mp4", testRecipe(), nil)

	assert.Equal(t, "-i", args[0])
	assert.Equal(t, "/in/src.mp4", args[1])
	assert.Equal(t, "-y", args[2])
	assert.Equal(t, "/out/video_002.mp4", args[len(args)-1])

	assert.Equal(t, "libx264", argValue(t, args, "-c:v"))
	assert.Equal(t, "slow", argValue(t, args, "-preset"))
	assert.Equal(t, "19", argValue(t, args, "-crf"))
	assert.Equal(t, "250", argValue(t, args, "-g"))
	assert.Equal(t, "3", argValue(t, args, "-bf"))
	assert.Equal(t, "4", argValue(t, args, "-refs"))
	assert.Equal(t, "yuv420p", argValue(t, args, "-pix_fmt"))
	assert.Equal(t, "29.9703", argValue(t, args, "-r"))
	assert.Equal(t, "aac", argValue(t, args, "-c:a"))
	assert.Equal(t, "256k", argValue(t, args, "-b:a"))
	assert.Equal(t, "volume=1.001500", argValue(t, args, "-af"))
	assert.Equal(t, "+faststart", argValue(t, args, "-movflags"))
	assert.Equal(t, "+genpts", argValue(t, args, "-fflags"))
}

func TestBuildArgs_FilterChain(t *testing.T) {
	t.Run("scale applied when factor is material", func(t *testing.T) {
		args := BuildArgs("in.mp4", "out.mp4", testRecipe(), nil)
		vf := argValue(t, args, "-vf")
		parts := strings.Split(vf, ",")
		require.Len(t, parts, 3)
		assert.True(t, strings.HasPrefix(parts[0], "scale=iw*1.003000:ih*1.003000"), "got %s", parts[0])
		assert.Equal(t, "crop=iw-1:ih-1:0.2500:-0.1250", parts[1])
		assert.Equal(t, "pad=iw+1:ih+1:0:0", parts[2])
	})

	t.Run("scale omitted when no-op, crop and pad always present", func(t *testing.T) {
		r := testRecipe()
		r.ScaleFactor = 1.0
		args := BuildArgs("in.mp4", "out.mp4", r, nil)
		vf := argValue(t, args, "-vf")
		parts := strings.Split(vf, ",")
		require.Len(t, parts, 2)
		assert.True(t, strings.HasPrefix(parts[0], "crop=iw-1:ih-1:"))
		assert.Equal(t, "pad=iw+1:ih+1:0:0", parts[1])
	})
}

func TestBuildArgs_Metadata(t *testing.T) {
	args := BuildArgs("in.mp4", "out.mp4", testRecipe(), nil)

	var metadata []string
	for i, a := range args {
		if a == "-metadata" {
			metadata = append(metadata, args[i+1])
		}
	}
	assert.Equal(t, []string{
		"creation_time=2026-01-02T03:04:05Z",
		"encoder=UniqueEncoder_v2",
		"comment=Unique_Copy_2",
		"unique_id=deadbeef",
		"title=Video_002",
	}, metadata)
}

func TestBuildArgs_ExtraArgsBeforeOutput(t *testing.T) {
	args := BuildArgs("in.mp4", "out.mp4", testRecipe(), []string{"-threads", "2"})
	n := len(args)
	assert.Equal(t, []string{"-threads", "2", "out.mp4"}, args[n-3:])
}
