package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpeg reports the ffmpeg binary used to slice non-WAV source tracks.
//
// Lookup order: the configured command (a path or a name on PATH), an ffmpeg
// that sits next to the running executable, then "ffmpeg" on PATH.
func CheckFFmpeg(configured string) Status {
	return checkFFmpeg(configured, currentExecutable())
}

// ResolveFFmpeg returns the command CheckFFmpeg settled on, available or not.
func ResolveFFmpeg(configured string) string {
	return CheckFFmpeg(configured).Command
}

func checkFFmpeg(configured, executable string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Slices compressed source audio",
		Optional:    true,
	}

	if cmd := strings.TrimSpace(configured); cmd != "" {
		if resolved, err := exec.LookPath(cmd); err == nil {
			result.Command = resolved
			result.Available = true
			return result
		}
	}

	if candidate, ok := sidecarCandidate(executable); ok {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			result.Command = candidate
			result.Available = true
			return result
		}
	}

	ffmpegName := "ffmpeg"
	if ffmpegPath, err := exec.LookPath(ffmpegName); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	if cmd := strings.TrimSpace(configured); cmd != "" {
		result.Command = cmd
	}
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found; only WAV sources can be sliced", result.Command)
	return result
}

func currentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		return ""
	}
	return path
}

func sidecarCandidate(executable string) (string, bool) {
	if executable == "" {
		return "", false
	}
	name := "ffmpeg"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(executable), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
