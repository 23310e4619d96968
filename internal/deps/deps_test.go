package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tali/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckMediaToolsReportsVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(
		"echo 'ffmpeg version 6.1.1-tali Copyright (c) 2000-2023'",
		"echo 'ffprobe banner without version'",
	))

	results := CheckMediaTools(context.Background(), cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Available || results[0].Detail != "6.1.1-tali" {
		t.Fatalf("unexpected ffmpeg status %#v", results[0])
	}
	if !results[1].Available || results[1].Detail != "" {
		t.Fatalf("unexpected ffprobe status %#v", results[1])
	}
}

func TestCheckMediaToolsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Media.FFmpegBinary = filepath.Join(t.TempDir(), "missing-ffmpeg")
	results := CheckMediaTools(context.Background(), cfg)
	if results[0].Available || results[0].Detail == "" {
		t.Fatalf("expected missing ffmpeg, got %#v", results[0])
	}
}

func TestVersionFailure(t *testing.T) {
	if got := Version(context.Background(), "clearly-not-present-binary"); got != "" {
		t.Fatalf("expected empty version, got %q", got)
	}
}

func TestCheckMediaToolsFindsBinariesOnPath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	for _, status := range CheckMediaTools(context.Background(), cfg) {
		if !status.Available {
			t.Fatalf("expected %s on PATH, got %#v", status.Command, status)
		}
		if status.Detail != "" {
			t.Fatalf("silent stub should report no version, got %q", status.Detail)
		}
	}
}
