package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"calmspace/internal/domain"
	"calmspace/internal/ports"
)

var (
	ErrPlayerUnavailable  = errors.New("audio player is not available")
	errHandleClosed       = errors.New("audio resource already released")
	errSuspendUnsupported = errors.New("process suspension is not supported on this platform")
)

const (
	defaultStartupProbe = 250 * time.Millisecond
	terminateTimeout    = 1200 * time.Millisecond
)

// Options configures FFPlayOutput.
type Options struct {
	Command      string
	Volume       int
	StartupProbe time.Duration
	Clock        clockwork.Clock
}

// FFPlayOutput plays the ambient loop through an ffplay subprocess.
type FFPlayOutput struct {
	command      string
	volume       int
	startupProbe time.Duration
	clock        clockwork.Clock
}

func NewFFPlayOutput(opts Options) *FFPlayOutput {
	if opts.Command == "" {
		opts.Command = "ffplay"
	}
	if opts.Volume <= 0 || opts.Volume > 100 {
		opts.Volume = 100
	}
	if opts.StartupProbe <= 0 {
		opts.StartupProbe = defaultStartupProbe
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &FFPlayOutput{
		command:      opts.Command,
		volume:       opts.Volume,
		startupProbe: opts.StartupProbe,
		clock:        opts.Clock,
	}
}

// Open prepares a handle for the asset. No process is started until Play.
func (o *FFPlayOutput) Open(_ context.Context, asset domain.AssetRef, loop domain.LoopMode) (ports.AudioHandle, error) {
	command, err := exec.LookPath(o.command)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPlayerUnavailable, o.command, err)
	}

	info, err := os.Stat(asset.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare asset %q: %w", asset.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("failed to prepare asset %q: is a directory", asset.Path)
	}

	return &ffplayHandle{
		command: command,
		volume:  o.volume,
		probe:   o.startupProbe,
		clock:   o.clock,
		asset:   asset,
		loop:    loop,
	}, nil
}

type ffplayHandle struct {
	command string
	volume  int
	probe   time.Duration
	clock   clockwork.Clock
	asset   domain.AssetRef
	loop    domain.LoopMode

	mu   sync.Mutex
	proc *playerProcess
	// suspended processes keep the output device while paused.
	suspended bool
	// rewound marks a suspended process that must restart from the loop start.
	rewound      bool
	position     time.Duration
	playingSince time.Time
	closed       bool
}

func (h *ffplayHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errHandleClosed
	}
	if h.proc != nil && !h.suspended {
		return nil
	}
	if h.proc != nil && !h.rewound {
		if err := resumeProcess(h.proc.pid()); err == nil {
			h.suspended = false
			h.playingSince = h.clock.Now()
			return nil
		}
		h.position = 0
	}
	if h.proc != nil {
		_ = h.terminateLocked()
	}

	proc, err := startPlayer(ctx, h.command, h.args(), h.probe)
	if err != nil {
		return err
	}
	h.proc = proc
	h.rewound = false
	h.playingSince = h.clock.Now()
	return nil
}

func (h *ffplayHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.proc == nil || h.suspended {
		return nil
	}
	h.accumulateLocked()

	if err := suspendProcess(h.proc.pid()); err != nil {
		if errors.Is(err, errSuspendUnsupported) {
			// Without suspension the player is gone and the next Play
			// starts over from the loop start.
			h.position = 0
			return h.terminateLocked()
		}
		return fmt.Errorf("failed to pause player: %w", err)
	}
	h.suspended = true
	return nil
}

// SeekToStart rewinds the loop. A suspended player stays allocated and is
// replaced on the next Play; a running one is terminated.
func (h *ffplayHandle) SeekToStart() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.position = 0
	h.playingSince = time.Time{}
	if h.proc != nil && h.suspended {
		h.rewound = true
		return nil
	}
	return h.terminateLocked()
}

// Position is the accumulated play time since the last rewind. It keeps
// growing across loop iterations.
func (h *ffplayHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	position := h.position
	if !h.playingSince.IsZero() {
		position += h.clock.Since(h.playingSince)
	}
	return position
}

func (h *ffplayHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.accumulateLocked()
	return h.terminateLocked()
}

func (h *ffplayHandle) accumulateLocked() {
	if h.playingSince.IsZero() {
		return
	}
	h.position += h.clock.Since(h.playingSince)
	h.playingSince = time.Time{}
}

func (h *ffplayHandle) terminateLocked() error {
	proc := h.proc
	if proc == nil {
		return nil
	}
	if h.suspended {
		_ = resumeProcess(proc.pid())
	}
	h.proc = nil
	h.suspended = false
	h.rewound = false
	return proc.stop()
}

func (h *ffplayHandle) args() []string {
	return []string{
		"-nodisp",
		"-hide_banner",
		"-loglevel", "warning",
		"-volume", strconv.Itoa(h.volume),
		"-loop", loopArg(h.loop),
		h.asset.Path,
	}
}

func loopArg(loop domain.LoopMode) string {
	if loop == domain.LoopModeTrack {
		return "0"
	}
	return "1"
}

type playerProcess struct {
	cmd     *exec.Cmd
	stderr  *bytes.Buffer
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

// startPlayer launches the player and waits out the startup probe so an
// immediate failure is reported instead of a phantom playing state.
func startPlayer(ctx context.Context, command string, args []string, probe time.Duration) (*playerProcess, error) {
	cmd := exec.Command(command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	proc := &playerProcess{cmd: cmd, stderr: &stderr, waitErr: waitErr}

	timer := time.NewTimer(probe)
	defer timer.Stop()

	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("player exited before playback started: %w: %s", err, stringsTrimSpaceSafe(stderr.String()))
		}
		return nil, errors.New("player exited before playback started")
	case <-ctx.Done():
		_ = proc.stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	return proc, nil
}

func (p *playerProcess) pid() int {
	return p.cmd.Process.Pid
}

func (p *playerProcess) stop() error {
	p.stopOnce.Do(func() {
		_ = p.cmd.Process.Signal(os.Interrupt)

		select {
		case err, ok := <-p.waitErr:
			if ok {
				p.stopErr = normalizeStopErr(err)
			}
		case <-time.After(terminateTimeout):
			_ = p.cmd.Process.Kill()
			err, ok := <-p.waitErr
			if ok {
				p.stopErr = normalizeStopErr(err)
			}
		}

		if p.stopErr != nil && p.stderr.Len() > 0 {
			p.stopErr = fmt.Errorf("%w: %s", p.stopErr, stringsTrimSpaceSafe(p.stderr.String()))
		}
	})
	return p.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func stringsTrimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
