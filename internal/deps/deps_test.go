package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"highlighter/internal/testsupport"
	"highlighter/internal/transcode"
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
		{Name: "Optional", Command: "also-not-present", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path != present {
		t.Fatalf("resolved path = %q, want %q", results[0].Path, present)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
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

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required binary reported, got %#v", missing)
	}
}

func TestRequirementsIncludeSubjectCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := len(Requirements(cfg)); got != 2 {
		t.Fatalf("expected ffmpeg and ffprobe only, got %d", got)
	}
	cfg.Signals.SubjectCommand = "yolo-count --conf 0.4"
	reqs := Requirements(cfg)
	if len(reqs) != 3 || reqs[2].Command != "yolo-count" || !reqs[2].Optional {
		t.Fatalf("unexpected subject requirement %#v", reqs)
	}
}

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`

func TestEncoders(t *testing.T) {
	runner := &testsupport.FakeRunner{Handler: func(testsupport.Call) (transcode.Result, error) {
		return transcode.Result{Stdout: encodersOutput}, nil
	}}
	encoders, err := Encoders(context.Background(), runner, "ffmpeg")
	if err != nil {
		t.Fatalf("Encoders: %v", err)
	}
	if !encoders["libx264"] || !encoders["h264_nvenc"] {
		t.Fatalf("expected video encoders, got %v", encoders)
	}
	if encoders["aac"] || encoders["="] {
		t.Fatalf("unexpected entries %v", encoders)
	}
}

func TestFFmpegVersion(t *testing.T) {
	runner := &testsupport.FakeRunner{Handler: func(testsupport.Call) (transcode.Result, error) {
		return transcode.Result{Stdout: "ffmpeg version 7.1 Copyright (c) 2000-2024\nbuilt with gcc\n"}, nil
	}}
	version, err := FFmpegVersion(context.Background(), runner, "ffmpeg")
	if err != nil || version != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("unexpected version %q %v", version, err)
	}
}
