package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildArgs constructs the complete ffmpeg argument slice for one copy.
// The argument order follows a fixed skeleton: input, filter chain, video
// codec, frame rate, audio, metadata, container flags, extras, output.
func BuildArgs(inputPath, outputPath string, r Recipe, extraArgs []string) []string {
	args := make([]string, 0, 48)

	// --- Input ---
	args = append(args, "-i", inputPath, "-y")

	// --- Video filter chain ---
	// The 1-pixel crop at a sub-pixel offset followed by a pad back to the
	// original dimensions forces a full re-sample of every pixel even when
	// the scale step is skipped.
	var filters []string
	if !r.ScaleIsNoop() {
		filters = append(filters, fmt.Sprintf(
			"scale=iw*%.6f:ih*%.6f:flags=lanczos", r.ScaleFactor, r.ScaleFactor,
		))
	}
	filters = append(filters, fmt.Sprintf(
		"crop=iw-1:ih-1:%.4f:%.4f", r.CropOffsetX, r.CropOffsetY,
	))
	filters = append(filters, "pad=iw+1:ih+1:0:0")
	args = append(args, "-vf", strings.Join(filters, ","))

	// --- Video codec and rate control ---
	args = append(args,
		"-c:v", "libx264",
		"-preset", r.Preset,
		"-crf", strconv.Itoa(r.CRF),
		"-g", strconv.Itoa(r.GOPSize),
		"-bf", strconv.Itoa(r.BFrames),
		"-refs", strconv.Itoa(r.RefFrames),
		"-pix_fmt", r.PixelFormat,
	)

	// --- Frame rate ---
	args = append(args, "-r", strconv.FormatFloat(r.FPS, 'f', -1, 64))

	// --- Audio ---
	args = append(args,
		"-c:a", "aac",
		"-b:a", r.AudioBitrate,
		"-af", fmt.Sprintf("volume=%.6f", r.AudioVolume),
	)

	// --- Metadata ---
	args = append(args,
		"-metadata", "creation_time="+r.CreationTime,
		"-metadata", "encoder="+r.EncoderTag,
		"-metadata", "comment="+r.Comment,
		"-metadata", "unique_id="+r.UniqueID,
		"-metadata", "title="+r.Title,
	)

	// --- Container flags ---
	args = append(args, "-movflags", "+faststart", "-fflags", "+genpts")

	// --- Operator-supplied extras ---
	args = append(args, extraArgs...)

	// --- Output ---
	args = append(args, outputPath)

	return args
}
