package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"highlighter/internal/colorgrade"
	"highlighter/internal/config"
	"highlighter/internal/deps"
	"highlighter/internal/transcode"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckSystemDeps evaluates all binaries the configuration needs. The run
// gate and the doctor command share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// CheckLUT reports whether grading will be applied. It is advisory: an
// unusable LUT only bypasses grading.
func CheckLUT(cfg *config.Config) Result {
	const name = "Color LUT"
	if !cfg.Color.Enabled {
		return Result{Name: name, Passed: true, Advisory: true, Detail: "Disabled"}
	}
	in, err := colorgrade.Inspect(cfg.Paths.LUTPath, cfg.Color.MinLUTBytes)
	if err != nil {
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("%s (grading bypassed: %v)", cfg.Paths.LUTPath, err)}
	}
	detail := fmt.Sprintf("%s (LUT_3D_SIZE %d, %d rows)", in.Path, in.Table.Size, in.Table.Rows)
	if in.TooSmall {
		detail += fmt.Sprintf(", only %d bytes", in.Bytes)
	}
	return Result{Name: name, Passed: true, Advisory: true, Detail: detail}
}

// CheckEncoders reports whether both configured codecs are compiled into
// ffmpeg. A missing hardware codec is advisory since runs fall back to CPU.
func CheckEncoders(ctx context.Context, cfg *config.Config, runner transcode.Runner) []Result {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	encoders, err := deps.Encoders(checkCtx, runner, cfg.Encoder.FFmpegBinary)
	if err != nil {
		return []Result{{Name: "Encoders", Detail: summarize(err)}}
	}
	software := Result{Name: "Software encoder", Detail: cfg.Encoder.SoftwareCodec}
	software.Passed = encoders[cfg.Encoder.SoftwareCodec]
	if !software.Passed {
		software.Detail += " (not compiled into ffmpeg)"
	}
	hardware := Result{Name: "Hardware encoder", Advisory: true, Detail: cfg.Encoder.HardwareCodec}
	hardware.Passed = encoders[cfg.Encoder.HardwareCodec]
	if !hardware.Passed {
		hardware.Detail += " (not compiled into ffmpeg; runs use the CPU)"
	}
	return []Result{software, hardware}
}

func summarize(err error) string {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return msg
}
