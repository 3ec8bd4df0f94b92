// Package deps reports whether the external tools shortsmith shells out to
// are installed.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"shortsmith/internal/services"
)

const versionTimeout = 5 * time.Second

// Requirement names an executable and the flag that prints its version.
type Requirement struct {
	Name        string
	Command     string
	Description string
	VersionArgs []string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Tools lists the binaries the download and encode stages need.
func Tools(ffmpeg, ffprobe, ytdlp string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for cutting and reframing clips",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Required for reading source dimensions and audio streams",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "yt-dlp",
			Command:     ytdlp,
			Description: "Required for video metadata and downloads",
			VersionArgs: []string{"--version"},
		},
	}
}

// CheckBinaries resolves each requirement on PATH and, when exec is non-nil,
// records the first line of its version output.
func CheckBinaries(ctx context.Context, exec services.Executor, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(ctx, exec, req))
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func check(ctx context.Context, executor services.Executor, req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Command = resolved
	status.Available = true

	if executor == nil || len(req.VersionArgs) == 0 {
		return status
	}
	versionCtx, cancel := services.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := executor.Run(versionCtx, resolved, req.VersionArgs)
	if err != nil {
		status.Detail = fmt.Sprintf("version check failed: %s", services.Summary(err))
		return status
	}
	status.Version = firstLine(out)
	return status
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
