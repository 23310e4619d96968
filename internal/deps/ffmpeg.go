package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"tali/internal/config"
)

const versionTimeout = 5 * time.Second

// MediaRequirements lists the decoder binaries configured in cfg.
func MediaRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Decodes YouTube clip frames and audio"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Reads clip duration and stream layout"},
	}
}

// CheckMediaTools checks the configured decoder binaries and records the
// reported version of each available one in Detail.
func CheckMediaTools(ctx context.Context, cfg *config.Config) []Status {
	results := CheckBinaries(MediaRequirements(cfg))
	for i := range results {
		if !results[i].Available {
			continue
		}
		if version := Version(ctx, results[i].Command); version != "" {
			results[i].Detail = version
		}
	}
	return results
}

// Version runs "<command> -version" and returns the version token of the
// first output line ("ffmpeg version 6.1.1 ..." yields "6.1.1"). It returns
// "" when the command fails or prints something else.
func Version(ctx context.Context, command string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, command, "-version").Output()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return ""
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 3 || fields[1] != "version" {
		return ""
	}
	return fields[2]
}
