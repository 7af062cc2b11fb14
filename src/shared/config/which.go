package config

import (
	"fmt"
	"os/exec"
	"strings"
)

func FindBin(bin string) string {
	cmd := exec.Command("which", bin)
	output, err := cmd.CombinedOutput()

	stringOutput := string(output)
	if err != nil {
		panic(fmt.Sprintf("Failed to find %s: %s", bin, stringOutput))
	}

	trimmedOutput := strings.TrimSpace(stringOutput)
	if trimmedOutput == "" {
		panic(fmt.Sprintf("No bin found for %s", bin))
	}

	return trimmedOutput
}

// FFmpegPath prefers FFMPEG_BIN_PATH and falls back to whatever is on PATH.
// A missing binary is not fatal here, the codec reports it per job.
func FFmpegPath(fromEnv string) string {
	if fromEnv != "" {
		return fromEnv
	}

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "ffmpeg"
	}

	return path
}
