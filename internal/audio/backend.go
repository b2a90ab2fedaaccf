package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var ErrAssetUnavailable = errors.New("audio asset unavailable")

// Backend opens playback handles for songs. The player keeps at most one
// handle alive at a time.
type Backend interface {
	Open(ctx context.Context, song Song) (Handle, error)
}

// Handle is a single loaded audio resource. Done is closed exactly once,
// when the track reaches its natural end; Close releases the resource and
// must be safe to call more than once.
type Handle interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(v float64) error
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
	Close() error
}

// StreamBackend verifies a song's asset over HTTP on open and then paces
// playback position against the wall clock. The audio bytes themselves are
// delivered to the operator's device by the server streaming route; this
// handle is the position/lifecycle authority the player orchestrates.
type StreamBackend struct {
	Client *http.Client
}

func NewStreamBackend() *StreamBackend {
	return &StreamBackend{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *StreamBackend) Open(ctx context.Context, song Song) (Handle, error) {
	if !song.HasAsset() {
		return nil, fmt.Errorf("%w: song %s has no asset url", ErrAssetUnavailable, song.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, song.AssetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: asset returned %s", ErrAssetUnavailable, resp.Status)
	}

	return newClockHandle(song.Duration), nil
}

// clockHandle paces position with a monotonic clock while playing. Seeking
// while playing rebases the clock so Position stays continuous.
type clockHandle struct {
	mu       sync.Mutex
	duration time.Duration
	base     time.Duration // position accumulated before startedAt
	started  time.Time     // zero when paused
	done     chan struct{}
	closed   bool
	endTimer *time.Timer
}

func newClockHandle(duration time.Duration) *clockHandle {
	return &clockHandle{
		duration: duration,
		done:     make(chan struct{}),
	}
}

func (h *clockHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.started.IsZero() {
		return nil
	}
	h.started = time.Now()
	h.armEndTimerLocked()
	return nil
}

func (h *clockHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.started.IsZero() {
		return nil
	}
	h.base += time.Since(h.started)
	h.started = time.Time{}
	h.stopEndTimerLocked()
	return nil
}

func (h *clockHandle) Seek(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	if pos < 0 {
		pos = 0
	}
	if h.duration > 0 && pos > h.duration {
		pos = h.duration
	}
	h.base = pos
	if !h.started.IsZero() {
		h.started = time.Now()
		h.armEndTimerLocked()
	}
	return nil
}

func (h *clockHandle) SetVolume(v float64) error { return nil }

func (h *clockHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos := h.base
	if !h.started.IsZero() {
		pos += time.Since(h.started)
	}
	if h.duration > 0 && pos > h.duration {
		pos = h.duration
	}
	return pos
}

func (h *clockHandle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration
}

func (h *clockHandle) Done() <-chan struct{} { return h.done }

func (h *clockHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.started = time.Time{}
	h.stopEndTimerLocked()
	return nil
}

func (h *clockHandle) armEndTimerLocked() {
	h.stopEndTimerLocked()
	if h.duration <= 0 {
		return
	}
	remaining := h.duration - h.base
	if remaining < 0 {
		remaining = 0
	}
	h.endTimer = time.AfterFunc(remaining, h.fireDone)
}

func (h *clockHandle) stopEndTimerLocked() {
	if h.endTimer != nil {
		h.endTimer.Stop()
		h.endTimer = nil
	}
}

func (h *clockHandle) fireDone() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.base = h.duration
	h.started = time.Time{}
	close(h.done)
}
