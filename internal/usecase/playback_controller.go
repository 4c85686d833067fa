package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"calmspace/internal/domain"
	"calmspace/internal/ports"
)

var ErrResourceAllocation = errors.New("audio resource allocation failed")

// AllocationError reports that the ambient loop could not be prepared or started.
// No partially built resource survives it.
type AllocationError struct {
	Generation uint64
	Err        error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("audio resource allocation failed (generation %d): %v", e.Generation, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

func (e *AllocationError) Is(target error) bool { return target == ErrResourceAllocation }

// PlaybackController owns at most one looping audio resource.
type PlaybackController struct {
	assets   ports.AssetProvider
	output   ports.AudioOutput
	events   ports.EventSink
	observer ports.ResourceObserver

	// opMu serializes every mutation so Release always happens-after an
	// in-flight Start, and a Start issued during Release waits for it.
	opMu       sync.Mutex
	resource   *audioResource
	generation uint64
	detached   domain.PlaybackState
	lastAsset  string

	status atomic.Pointer[domain.PlaybackStatus]
}

func NewPlaybackController(
	assets ports.AssetProvider,
	output ports.AudioOutput,
	events ports.EventSink,
	observer ports.ResourceObserver,
) *PlaybackController {
	if observer == nil {
		observer = ports.NoopResourceObserver{}
	}
	c := &PlaybackController{
		assets:   assets,
		output:   output,
		events:   events,
		observer: observer,
		detached: domain.PlaybackStateUninitialized,
	}
	c.status.Store(&domain.PlaybackStatus{State: domain.PlaybackStateUninitialized})
	return c
}

// Start allocates the resource if needed and begins looping playback.
func (c *PlaybackController) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.startLocked(ctx)
}

// Stop pauses playback and rewinds to the start of the loop.
func (c *PlaybackController) Stop() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.stopLocked()
}

// Toggle stops when playing and starts otherwise.
func (c *PlaybackController) Toggle(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.resource != nil && c.resource.state == domain.PlaybackStatePlaying {
		return c.stopLocked()
	}
	return c.startLocked(ctx)
}

// Release destroys the resource. Later calls are no-ops until the next Start.
func (c *PlaybackController) Release() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	res := c.resource
	if res == nil {
		return nil
	}
	c.resource = nil
	c.detached = domain.PlaybackStateReleased

	err := res.handle.Close()
	res.state = domain.PlaybackStateReleased
	c.observer.ResourceReleased()
	c.publish()
	if err != nil {
		return fmt.Errorf("failed to release audio resource (generation %d): %w", res.generation, err)
	}
	return nil
}

// IsPlaying reports the externally observable play flag.
func (c *PlaybackController) IsPlaying() bool {
	return c.status.Load().Playing
}

// Status returns the last published playback snapshot.
func (c *PlaybackController) Status() domain.PlaybackStatus {
	return *c.status.Load()
}

func (c *PlaybackController) startLocked(ctx context.Context) error {
	if c.resource != nil && c.resource.state == domain.PlaybackStatePlaying {
		return nil
	}

	created, err := c.ensureResource(ctx)
	if err != nil {
		return err
	}

	res := c.resource
	if err := res.handle.Play(ctx); err != nil {
		if created {
			c.discard(res)
		}
		c.publish()
		return &AllocationError{Generation: res.generation, Err: err}
	}

	res.state = domain.PlaybackStatePlaying
	c.publish()
	return nil
}

func (c *PlaybackController) stopLocked() error {
	res := c.resource
	if res == nil || res.state != domain.PlaybackStatePlaying {
		return nil
	}

	var errs []error
	if err := res.handle.Pause(); err != nil {
		errs = append(errs, fmt.Errorf("pause: %w", err))
	}
	if err := res.handle.SeekToStart(); err != nil {
		errs = append(errs, fmt.Errorf("rewind: %w", err))
	}
	res.state = domain.PlaybackStatePaused
	c.publish()
	return errors.Join(errs...)
}

// ensureResource constructs the resource at most once per generation.
func (c *PlaybackController) ensureResource(ctx context.Context) (bool, error) {
	if c.resource != nil {
		return false, nil
	}

	next := c.generation + 1
	asset, err := c.assets.Resolve(ctx)
	if err != nil {
		c.observer.AllocationFailed()
		return false, &AllocationError{Generation: next, Err: err}
	}

	handle, err := c.output.Open(ctx, asset, domain.LoopModeTrack)
	if err != nil {
		c.observer.AllocationFailed()
		return false, &AllocationError{Generation: next, Err: err}
	}

	c.generation = next
	c.lastAsset = asset.Name
	c.resource = &audioResource{
		handle:     handle,
		asset:      asset,
		generation: next,
		state:      domain.PlaybackStatePrepared,
	}
	c.observer.ResourceAllocated()
	return true, nil
}

// discard tears down a resource that never reached playing.
func (c *PlaybackController) discard(res *audioResource) {
	_ = res.handle.Close()
	res.state = domain.PlaybackStateReleased
	if c.resource == res {
		c.resource = nil
	}
	c.observer.ResourceReleased()
	c.observer.AllocationFailed()
}

func (c *PlaybackController) publish() {
	status := &domain.PlaybackStatus{
		State:      c.detached,
		Generation: c.generation,
		Asset:      c.lastAsset,
	}
	if res := c.resource; res != nil {
		status.State = res.state
		status.Playing = res.state == domain.PlaybackStatePlaying
		status.Position = res.handle.Position()
	}
	c.status.Store(status)
	if c.events != nil {
		c.events.PlaybackChanged(*status)
	}
}
