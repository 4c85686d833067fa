package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"calmspace/internal/domain"
)

func TestFFPlayOutputOpenMissingCommand(t *testing.T) {
	t.Parallel()

	output := NewFFPlayOutput(Options{Command: filepath.Join(t.TempDir(), "no-such-player")})
	_, err := output.Open(context.Background(), writeAsset(t), domain.LoopModeTrack)
	if !errors.Is(err, ErrPlayerUnavailable) {
		t.Fatalf("expected ErrPlayerUnavailable, got %v", err)
	}
}

func TestFFPlayOutputOpenMissingAsset(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "player.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	output := NewFFPlayOutput(Options{Command: script})

	asset := domain.AssetRef{Name: "Rain", Path: filepath.Join(t.TempDir(), "missing.mp3")}
	_, err := output.Open(context.Background(), asset, domain.LoopModeTrack)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing asset error, got %v", err)
	}
}

func TestFFPlayOutputPlayPassesLoopArguments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := writeScript(t, "player.sh", "#!/usr/bin/env bash\nprintf '%s\\n' \"$@\" > '"+argsFile+"'\nexec sleep 5\n")
	asset := writeAsset(t)

	output := NewFFPlayOutput(Options{Command: script, Volume: 40, StartupProbe: 200 * time.Millisecond})
	handle, err := output.Open(context.Background(), asset, domain.LoopModeTrack)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := handle.Play(context.Background()); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	defer handle.Close()

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("player did not record arguments: %v", err)
	}
	args := strings.Fields(string(raw))
	joined := strings.Join(args, " ")
	for _, want := range []string{"-nodisp", "-loop 0", "-volume 40", asset.Path} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in player args: %v", want, args)
		}
	}
	if strings.Contains(joined, "-ss") {
		t.Fatalf("fresh playback must start at the loop start: %v", args)
	}
}

func TestFFPlayOutputPlayEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'device busy' 1>&2\nexit 1\n")
	output := NewFFPlayOutput(Options{Command: script})

	handle, err := output.Open(context.Background(), writeAsset(t), domain.LoopModeTrack)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	err = handle.Play(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exited before playback started") {
		t.Fatalf("expected early exit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "device busy") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestFFPlayHandlePositionAccounting(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	script := writeScript(t, "player.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	output := NewFFPlayOutput(Options{Command: script, StartupProbe: 50 * time.Millisecond, Clock: clock})

	handle, err := output.Open(context.Background(), writeAsset(t), domain.LoopModeTrack)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := handle.Play(context.Background()); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if err := handle.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	clock.Advance(time.Hour)
	if got := handle.Position(); got != 2*time.Minute {
		t.Fatalf("expected paused position 2m, got %s", got)
	}

	if err := handle.SeekToStart(); err != nil {
		t.Fatalf("rewind failed: %v", err)
	}
	if got := handle.Position(); got != 0 {
		t.Fatalf("expected position 0 after rewind, got %s", got)
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if err := handle.Play(context.Background()); !errors.Is(err, errHandleClosed) {
		t.Fatalf("expected closed handle error, got %v", err)
	}
}

func TestFFPlayHandleResumeAfterPause(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "player.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	output := NewFFPlayOutput(Options{Command: script, StartupProbe: 50 * time.Millisecond})

	handle, err := output.Open(context.Background(), writeAsset(t), domain.LoopModeTrack)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer handle.Close()

	if err := handle.Play(context.Background()); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	first := handle.(*ffplayHandle).proc
	if err := handle.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if err := handle.Play(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if handle.(*ffplayHandle).proc != first {
		t.Fatalf("expected resume to reuse the player process")
	}
}

func TestLoopArg(t *testing.T) {
	t.Parallel()

	if got := loopArg(domain.LoopModeTrack); got != "0" {
		t.Fatalf("expected infinite loop arg, got %q", got)
	}
	if got := loopArg(domain.LoopModeNone); got != "1" {
		t.Fatalf("expected single play arg, got %q", got)
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestStringsTrimSpaceSafe(t *testing.T) {
	t.Parallel()

	if got := stringsTrimSpaceSafe("  hi\n"); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func writeAsset(t *testing.T) domain.AssetRef {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rain_from_indoors_perfect_loop.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o600); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}
	return domain.AssetRef{Name: "Rain From Indoors Perfect Loop", Path: path}
}
