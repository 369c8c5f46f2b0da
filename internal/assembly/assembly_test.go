package assembly_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"highlighter/internal/assembly"
	"highlighter/internal/clips"
	"highlighter/internal/encoder"
	"highlighter/internal/logging"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/scenes"
	"highlighter/internal/services"
	"highlighter/internal/testsupport"
	"highlighter/internal/transcode"
)

var settings = encoder.Settings{HardwareCodec: "h264_nvenc", SoftwareCodec: "libx264", Quality: 18, Preset: "slow"}

func videoProbe(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264"}}}, nil
}

func writeCube(t *testing.T, path string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("LUT_3D_SIZE 2\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "0.%d 0.2 0.3\n", i)
	}
	testsupport.WriteText(t, path, b.String())
}

type fixture struct {
	workDir string
	output  string
	lut     string
	runner  *testsupport.FakeRunner
	clips   []clips.Artifact
}

func newFixture(t *testing.T, clipCount int) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		workDir: filepath.Join(base, "work"),
		output:  filepath.Join(base, "out", "highlight_horizontal.mp4"),
		lut:     filepath.Join(base, "cinematic.cube"),
		runner:  &testsupport.FakeRunner{},
	}
	for i := 0; i < clipCount; i++ {
		path := filepath.Join(f.workDir, fmt.Sprintf("clip_%d.mp4", i))
		testsupport.WriteFile(t, path, 64)
		r, _ := scenes.NewTimeRange(float64(i), float64(i)+1)
		f.clips = append(f.clips, clips.Artifact{Path: path, Range: r, SceneIndex: i})
	}
	if clipCount == 0 {
		if err := os.MkdirAll(f.workDir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) stage(colorEnabled bool) *assembly.Stage {
	exec := transcode.NewExecutor(f.runner, "ffmpeg", encoder.RetryPolicy(settings))
	opts := assembly.Options{LUTPath: f.lut, MinLUTBytes: 0, ColorEnabled: colorEnabled, WorkDir: f.workDir}
	return assembly.NewStage(exec, assembly.Verifier{Probe: videoProbe}, opts, logging.NewNop())
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("expected %s empty, found %v", dir, names)
	}
}

func TestConcatArgsReencodesBothStreams(t *testing.T) {
	hw := assembly.ConcatArgs("/work/list.txt", encoder.HardwareProfile(settings), "/work/merged.mp4")
	want := []string{"-y", "-threads", "0", "-hwaccel", "cuda", "-f", "concat", "-safe", "0", "-i", "/work/list.txt",
		"-c:v", "h264_nvenc", "-rc", "vbr", "-cq", "18", "-preset", "slow",
		"-c:a", "aac", "-b:a", "192k", "-ar", "48000", "-ac", "2", "/work/merged.mp4"}
	if !slices.Equal(hw, want) {
		t.Fatalf("hardware concat args\n got %v\nwant %v", hw, want)
	}
	if policy := encoder.RetryPolicy(settings); !policy.IsHardware(hw) || slices.Contains(policy.Downgrade(hw), "h264_nvenc") {
		t.Fatalf("concat re-encode must fall back to software like any other encode: %v", hw)
	}

	copied := assembly.CopyConcatArgs("/work/list.txt", "/work/merged.mp4")
	if !slices.Contains(copied, "copy") || slices.Contains(copied, "-c:v") {
		t.Fatalf("unexpected stream copy args %v", copied)
	}
}

func TestAssembleNoClips(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.stage(true).Assemble(context.Background(), nil, encoder.SoftwareProfile(settings), f.output)
	if !errors.Is(err, assembly.ErrNoValidScenes) {
		t.Fatalf("expected ErrNoValidScenes, got %v", err)
	}
	if _, err := os.Stat(f.output); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
	if len(f.runner.Calls()) != 0 {
		t.Fatalf("expected no commands, got %v", f.runner.Calls())
	}
}

func TestAssembleGradesWithValidLUT(t *testing.T) {
	f := newFixture(t, 3)
	writeCube(t, f.lut, 8)

	res, err := f.stage(true).Assemble(context.Background(), f.clips, encoder.SoftwareProfile(settings), f.output)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !res.Graded || res.LUTPath != f.lut || res.Bytes == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	calls := f.runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected concat and grade, got %v", calls)
	}
	if !calls[0].Contains("concat") || !calls[0].Contains("libx264") || calls[0].Contains("copy") || !strings.HasPrefix(filepath.Base(calls[0].Output()), "merged_") {
		t.Fatalf("unexpected concat command %s", calls[0])
	}
	if !calls[1].Contains("lut3d=" + f.lut) {
		t.Fatalf("expected lut3d filter, got %s", calls[1])
	}
	if _, err := os.Stat(f.output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	assertEmptyDir(t, f.workDir)
}

func TestAssembleBypassesInvalidLUT(t *testing.T) {
	f := newFixture(t, 2)
	writeCube(t, f.lut, 7)

	res, err := f.stage(true).Assemble(context.Background(), f.clips, encoder.SoftwareProfile(settings), f.output)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Graded {
		t.Fatal("expected ungraded output")
	}
	if got := f.runner.CallsContaining("-vf"); len(got) != 0 {
		t.Fatalf("expected no filter commands, got %v", got)
	}
}

func TestAssembleFallsBackWhenGradeFails(t *testing.T) {
	f := newFixture(t, 2)
	writeCube(t, f.lut, 8)
	f.runner.Handler = func(call testsupport.Call) (transcode.Result, error) {
		if call.Contains("-vf") {
			return testsupport.Fail("lut3d: unexpected EOF")
		}
		return testsupport.WriteOutput(call)
	}

	res, err := f.stage(true).Assemble(context.Background(), f.clips, encoder.SoftwareProfile(settings), f.output)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Graded {
		t.Fatal("expected fallback to be ungraded")
	}
	if got := len(f.runner.CallsContaining("-vf")); got != 2 {
		t.Fatalf("expected grade attempt plus retry, got %d", got)
	}
	calls := f.runner.Calls()
	if last := calls[len(calls)-1]; last.Contains("-vf") {
		t.Fatalf("expected plain re-encode last, got %s", last)
	}
	if _, err := os.Stat(f.output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestAssembleRejectsEmptyOutput(t *testing.T) {
	f := newFixture(t, 1)
	f.runner.Handler = func(call testsupport.Call) (transcode.Result, error) {
		if strings.Contains(call.Output(), ".partial") {
			return transcode.Result{}, os.WriteFile(call.Output(), nil, 0o644)
		}
		return testsupport.WriteOutput(call)
	}

	_, err := f.stage(false).Assemble(context.Background(), f.clips, encoder.SoftwareProfile(settings), f.output)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := os.Stat(f.output); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
	assertEmptyDir(t, filepath.Dir(f.output))
	assertEmptyDir(t, f.workDir)
}

func TestAssembleConcatFailureCleansUp(t *testing.T) {
	f := newFixture(t, 2)
	f.runner.Handler = func(call testsupport.Call) (transcode.Result, error) {
		return testsupport.Fail("Invalid data found when processing input")
	}
	_, err := f.stage(false).Assemble(context.Background(), f.clips, encoder.SoftwareProfile(settings), f.output)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "concatenate") {
		t.Fatalf("expected stage detail in %q", err)
	}
	assertEmptyDir(t, f.workDir)
}

func TestHardwareProfileFinalArgs(t *testing.T) {
	args := assembly.FinalArgs("/w/merged.mp4", "/luts/a b.cube", "Lake Trip", encoder.HardwareProfile(settings), "/o/out.mp4")
	joined := strings.Join(args, " ")
	if !strings.HasPrefix(joined, "-y -threads 0 -hwaccel cuda -i /w/merged.mp4 -vf lut3d=/luts/a b.cube -c:v h264_nvenc") || !strings.HasSuffix(joined, "-metadata title=Lake Trip /o/out.mp4") {
		t.Fatalf("unexpected args %q", joined)
	}
}

func TestManifestEscaping(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "list.txt")
	if err := assembly.WriteManifest(manifest, []string{"/clips/it's.mp4", "/clips/b.mp4"}); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	data, _ := os.ReadFile(manifest)
	want := "file '/clips/it'\\''s.mp4'\nfile '/clips/b.mp4'\n"
	if string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}
}

func TestVerifierRejectsMissingVideoStream(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "tmp.mp4")
	final := filepath.Join(dir, "final.mp4")
	testsupport.WriteFile(t, tmp, 32)
	v := assembly.Verifier{Probe: func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio"}}}, nil
	}}
	if _, err := v.Commit(context.Background(), "assembly", tmp, final); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatal("expected rejected temp file removed")
	}
}
