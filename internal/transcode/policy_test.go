package transcode_test

import (
	"slices"
	"strings"
	"testing"

	"highlighter/internal/transcode"
)

func nvencPolicy() transcode.RetryPolicy {
	return transcode.RetryPolicy{
		HardwareCodec: "h264_nvenc",
		SoftwareCodec: "libx264",
		HardwareArgs:  []string{"-rc", "vbr", "-cq", "18", "-preset", "slow"},
		SoftwareArgs:  []string{"-preset", "slow", "-crf", "18"},
	}
}

func TestDowngradeStripsHardwareFlags(t *testing.T) {
	policy := nvencPolicy()
	args := []string{
		"-y", "-threads", "0",
		"-hwaccel", "cuda", "-hwaccel_output_format", "cuda", "-hwaccel_device", "0",
		"-ss", "1.5", "-i", "in.mp4", "-t", "2",
		"-c:v", "h264_nvenc", "-rc", "vbr", "-cq", "18", "-preset", "slow",
		"out.mp4",
	}
	original := slices.Clone(args)

	got := policy.Downgrade(args)
	want := []string{
		"-y", "-threads", "0",
		"-ss", "1.5", "-i", "in.mp4", "-t", "2",
		"-c:v", "libx264", "-preset", "slow", "-crf", "18",
		"out.mp4",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("Downgrade mismatch\n got: %v\nwant: %v", got, want)
	}
	if !slices.Equal(args, original) {
		t.Fatal("Downgrade modified its input")
	}
	if policy.IsHardware(got) {
		t.Fatalf("downgraded command still hardware: %v", got)
	}
}

func TestDowngradeIsDeterministicAndIdempotent(t *testing.T) {
	policy := nvencPolicy()
	args := []string{"-hwaccel", "cuda", "-i", "a.mp4", "-vcodec", "h264_nvenc", "-rc", "vbr", "-cq", "18", "-preset", "slow", "b.mp4"}
	first := policy.Downgrade(args)
	second := policy.Downgrade(args)
	if !slices.Equal(first, second) {
		t.Fatalf("Downgrade not deterministic: %v vs %v", first, second)
	}
	if again := policy.Downgrade(first); !slices.Equal(again, first) {
		t.Fatalf("Downgrade of a software command changed it: %v -> %v", first, again)
	}
}

func TestDowngradeHandlesCodecFlagVariants(t *testing.T) {
	policy := nvencPolicy()
	for _, flag := range []string{"-c:v", "-codec:v", "-vcodec", "-c", "-codec"} {
		got := policy.Downgrade([]string{"-i", "x", flag, "h264_nvenc", "y.mp4"})
		if strings.Contains(strings.Join(got, " "), "nvenc") {
			t.Fatalf("%s: hardware codec survived: %v", flag, got)
		}
		if !slices.Contains(got, "libx264") {
			t.Fatalf("%s: software codec missing: %v", flag, got)
		}
	}
}

func TestBareCodecFlagCountsAsHardware(t *testing.T) {
	policy := nvencPolicy()
	if !policy.IsHardware([]string{"-i", "x", "-c", "h264_nvenc", "y.mp4"}) {
		t.Fatal("expected -c h264_nvenc to hold the hardware gate")
	}
	args := []string{"-f", "concat", "-i", "list.txt", "-c", "copy", "y.mp4"}
	if policy.IsHardware(args) || !slices.Equal(policy.Downgrade(args), args) {
		t.Fatalf("stream copy must not be treated as hardware: %v", policy.Downgrade(args))
	}
}

func TestDowngradeLeavesOtherCodecsAlone(t *testing.T) {
	policy := nvencPolicy()
	args := []string{"-i", "x", "-c:v", "libx265", "-c:a", "aac", "y.mp4"}
	if got := policy.Downgrade(args); !slices.Equal(got, args) {
		t.Fatalf("expected unchanged args, got %v", got)
	}
}

func TestRetryPolicyStates(t *testing.T) {
	policy := nvencPolicy()
	first := policy.First([]string{"-hwaccel", "cuda", "-c:v", "h264_nvenc", "o.mp4"})
	if first.Number != 1 || first.Downgraded {
		t.Fatalf("unexpected first attempt: %+v", first)
	}
	second, ok := policy.Next(first)
	if !ok || second.Number != 2 || !second.Downgraded {
		t.Fatalf("expected downgraded second attempt, got %+v ok=%v", second, ok)
	}
	if policy.IsHardware(second.Args) {
		t.Fatalf("second attempt still hardware: %v", second.Args)
	}
	if _, ok := policy.Next(second); ok {
		t.Fatal("expected no third attempt")
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		stderr string
		want   transcode.FailureKind
	}{
		{"[h264_nvenc] CUDA_ERROR_NO_DEVICE: no CUDA-capable device is detected", transcode.FailureDeviceLost},
		{"cu->cuInit(0) failed", transcode.FailureDeviceLost},
		{"Cannot load libnvidia-encode.so.1", transcode.FailureDeviceLost},
		{"Invalid data found when processing input", transcode.FailureGeneric},
		{"", transcode.FailureGeneric},
	}
	for _, tt := range tests {
		if got := transcode.ClassifyFailure(tt.stderr); got != tt.want {
			t.Fatalf("ClassifyFailure(%q) = %s, want %s", tt.stderr, got, tt.want)
		}
	}
}

func TestTail(t *testing.T) {
	out := "one\n\ntwo\nthree\n\n"
	if got := transcode.Tail(out, 2); got != "two\nthree" {
		t.Fatalf("unexpected tail %q", got)
	}
	if got := transcode.Tail("", 3); got != "" {
		t.Fatalf("expected empty tail, got %q", got)
	}
}
