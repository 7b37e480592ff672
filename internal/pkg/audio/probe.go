package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProbeDuration runs ffprobe against a local audio file and returns the
// track length rounded to whole seconds. Admins can override the value on
// the track record, so a probe failure is not fatal to an upload.
func ProbeDuration(ctx context.Context, path string) (int, error) {
	out, err := runCommand(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", strings.TrimSpace(out), err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %f", d)
	}

	return int(math.Round(d)), nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	// Probing is cheap; a minute covers even very large files on slow disks
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
