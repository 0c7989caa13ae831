package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/camio/config"
	"github.com/teranos/camio/trip"
)

const take = "advancedfx Cam\nversion 2\nscaleFov none\nDATA\n0 1 2 3 0 0 0 90\n1 4 5 6 0 10 20 90\n"

func writeTake(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take01.cam")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestRun_ScriptToStdout tests the default output
func TestRun_ScriptToStdout(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-width", "800", "-height", "600", writeTake(t, take))

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `addCamera("HLAE CamIO Camera", [0, 0])`)
	assert.Contains(t, stdout, "if (comp.width < 800) {")
	assert.Contains(t, stderr, "take01.cam: 2 keyframes, matrix rotation")
	assert.Contains(t, stderr, "[camio] No issues during conversion")
}

// TestRun_Outputs tests every file output in one run
func TestRun_Outputs(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "import.jsx")
	sheet := filepath.Join(dir, "take.yaml")
	preview := filepath.Join(dir, "take.png")
	reports := filepath.Join(dir, "reports")

	code, stdout, stderr := runCLI(t,
		"-mode", "direct",
		"-camera", "Shot 4",
		"-script", script,
		"-sheet", sheet,
		"-preview", preview,
		"-report", reports,
		writeTake(t, take),
	)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Contains(t, string(content), `addCamera("Shot 4", [0, 0])`)
	assert.Contains(t, string(content), "HLAE CamIO XZ")

	content, err = os.ReadFile(sheet)
	require.NoError(t, err)
	assert.Contains(t, string(content), "rotation_mode: direct")

	assert.FileExists(t, preview)
	assert.FileExists(t, filepath.Join(reports, "index.html"))

	matches, err := filepath.Glob(filepath.Join(reports, "*", "index.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// TestRun_Baseline tests storing and checking a baseline
func TestRun_Baseline(t *testing.T) {
	baselines := t.TempDir()
	input := writeTake(t, take)
	script := filepath.Join(t.TempDir(), "import.jsx")

	code, _, stderr := runCLI(t, "-script", script, "-baseline", baselines, "-update-baseline", input)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(baselines, "take01.yaml"))

	code, _, stderr = runCLI(t, "-script", script, "-baseline", baselines, input)
	assert.Equal(t, 0, code, stderr)

	code, _, stderr = runCLI(t, "-script", script, "-baseline", baselines, "-width", "1280", "-height", "720", input)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "keyframe regression detected")
}

// TestRun_Failures tests exit codes for unusable input
func TestRun_Failures(t *testing.T) {
	code, _, stderr := runCLI(t, "-version-policy", "reject", writeTake(t, strings.Replace(take, "version 2", "version 3", 1)))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported_version")

	code, _, stderr = runCLI(t, writeTake(t, "advancedfx Cam\nversion 2\nDATA\n0 1 2\n"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "malformed_frame")

	code, _, _ = runCLI(t, filepath.Join(t.TempDir(), "missing.cam"))
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t)
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "-fps", "0", writeTake(t, take))
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "-no-such-flag")
	assert.Equal(t, 2, code)
}

// TestRun_ConfigProfile tests a profile overridden by flags
func TestRun_ConfigProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("frame_rate: 60\nversion_policy: accept\nrotation_mode: direct\n"), 0644))

	sheet := filepath.Join(t.TempDir(), "take.yaml")
	code, _, stderr := runCLI(t,
		"-config", profile,
		"-mode", "matrix",
		"-sheet", sheet,
		"-script", filepath.Join(t.TempDir(), "import.jsx"),
		writeTake(t, strings.Replace(take, "version 2", "version 5", 1)),
	)
	require.Equal(t, 0, code, stderr)

	content, err := os.ReadFile(sheet)
	require.NoError(t, err)
	assert.Contains(t, string(content), "frame_rate: 60")
	assert.Contains(t, string(content), "rotation_mode: matrix")
	assert.Contains(t, string(content), "camio_version: 5")
	assert.Contains(t, stderr, "CamIO file is version 5")
}

// TestConvert_Ask tests the retry after confirming a newer version
func TestConvert_Ask(t *testing.T) {
	newer := []byte(strings.Replace(take, "version 2", "version 3", 1))
	logger := slog.New(slog.DiscardHandler)

	cfg := config.Default()
	cfg.VersionPolicy = config.VersionPrompt

	var asked []int
	result, err := convert(cfg, newer, logger, func(declared, supported int) (bool, error) {
		asked = append(asked, declared, supported)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, asked)
	assert.Len(t, result.Frames, 2)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, trip.UnsupportedVersionKind, result.Warnings[0].Kind)

	_, err = convert(cfg, newer, logger, func(int, int) (bool, error) { return false, nil })
	assert.True(t, trip.Is(err, trip.UnsupportedVersionKind))

	failure := errors.New("no terminal")
	_, err = convert(cfg, newer, logger, func(int, int) (bool, error) { return false, failure })
	assert.ErrorIs(t, err, failure)

	_, err = convert(cfg, newer, logger, nil)
	assert.True(t, trip.Is(err, trip.UnsupportedVersionKind))

	called := false
	_, err = convert(cfg, []byte("not camio"), logger, func(int, int) (bool, error) {
		called = true
		return true, nil
	})
	assert.True(t, trip.Is(err, trip.InvalidFormatKind))
	assert.False(t, called)
}
