package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"uniqueizer/config"

	"github.com/google/shlex"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type Runner struct {
	cfg       *config.Config
	extraArgs []string
}

func NewRunner(cfg *config.Config) (*Runner, error) {
	if _, err := exec.LookPath(cfg.FFBin); err != nil {
		return nil, fmt.Errorf("ffmpeg binary not found or not in PATH: %s", cfg.FFBin)
	}

	// FF_EXTRA_ARGS is a single shell-style string; split it once here
	// rather than on every invocation.
	extraArgs, err := shlex.Split(cfg.FFExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid FF_EXTRA_ARGS: %w", err)
	}

	return &Runner{
		cfg:       cfg,
		extraArgs: extraArgs,
	}, nil
}

// Encode runs one ffmpeg invocation producing outputPath from inputPath
// under the given recipe. It returns the combined stdout/stderr for
// diagnostics. Success requires both a zero exit status and the output file
// existing afterward; on failure any partial output is removed.
func (r *Runner) Encode(ctx context.Context, inputPath, outputPath string, recipe Recipe) (string, error) {
	// Check system resources before starting
	if err := r.checkResources(); err != nil {
		return "", fmt.Errorf("insufficient system resources: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.FFTimeout)
	defer cancel()

	args := BuildArgs(inputPath, outputPath, recipe, r.extraArgs)

	cmd := exec.CommandContext(ctx, r.cfg.FFBin, args...)
	var outputBuf bytes.Buffer
	cmd.Stdout = &outputBuf
	cmd.Stderr = &outputBuf

	log.Printf("Executing copy %d: %s %s", recipe.CopyNumber, cmd.Path, strings.Join(args, " "))

	err := cmd.Run()
	outputLog := outputBuf.String()

	if err != nil {
		// If the command failed, clean up the (likely empty or partial) output file.
		os.Remove(outputPath)
		return outputLog, fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return outputLog, fmt.Errorf("ffmpeg exited cleanly but output file is missing: %s", outputPath)
	}

	return outputLog, nil
}

// checkResources verifies that the system has enough free resources to start a new encode.
func (r *Runner) checkResources() error {
	// CPU
	p, err := cpu.Percent(time.Second, false)
	if err != nil {
		log.Printf("Warning: could not get CPU usage: %v", err)
	} else if len(p) > 0 && p[0] > (100.0-r.cfg.ThrottleCPU) {
		return fmt.Errorf("not enough idle CPU. Current usage: %.2f%%, Idle threshold: %.2f%%", p[0], r.cfg.ThrottleCPU)
	}

	// Memory
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("Warning: could not get memory usage: %v", err)
	} else if vm.Available < uint64(r.cfg.ThrottleFreeMem) {
		return fmt.Errorf("not enough free memory. Available: %d, Required: %d", vm.Available, r.cfg.ThrottleFreeMem)
	}

	// Disk
	d, err := disk.Usage(r.cfg.OutputDir)
	if err != nil {
		log.Printf("Warning: could not get disk usage for %s: %v", r.cfg.OutputDir, err)
	} else if d.Free < uint64(r.cfg.ThrottleFreeDisk) {
		return fmt.Errorf("not enough free disk space. Available: %d, Required: %d", d.Free, r.cfg.ThrottleFreeDisk)
	}
	return nil
}
