package audio

import (
	"context"
	"log"
	"sync"
	"time"
)

const defaultCadence = 250 * time.Millisecond

// Player is the playback engine for the live service. It owns the playlist
// and the single live backend handle, and publishes state snapshots to
// subscribers while anything changes. Playback of song items is commanded
// by the runner; the player itself knows nothing about service plans.
type Player struct {
	backend Backend
	cadence time.Duration

	mu           sync.Mutex
	playlist     []Song
	currentIndex int
	handle       Handle
	gen          int
	volume       float64
	progress     time.Duration
	duration     time.Duration
	isPlaying    bool
	isLoading    bool
	errMsg       string
	cadenceStop  chan struct{}

	listenerMu sync.RWMutex
	listeners  map[chan State]struct{}
}

func NewPlayer(backend Backend) *Player {
	return &Player{
		backend:      backend,
		cadence:      defaultCadence,
		currentIndex: -1,
		volume:       1.0,
		listeners:    make(map[chan State]struct{}),
	}
}

// WithCadence overrides the progress reporting interval. Zero or negative
// values are ignored.
func (p *Player) WithCadence(d time.Duration) *Player {
	if d > 0 {
		p.cadence = d
	}
	return p
}

// State returns a snapshot of the player.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Player) stateLocked() State {
	st := State{
		IsPlaying:    p.isPlaying,
		IsLoading:    p.isLoading,
		Progress:     p.progress,
		Duration:     p.duration,
		Volume:       p.volume,
		CurrentIndex: p.currentIndex,
		Err:          p.errMsg,
	}
	st.Playlist = make([]Song, len(p.playlist))
	copy(st.Playlist, p.playlist)
	if p.currentIndex >= 0 && p.currentIndex < len(p.playlist) {
		song := p.playlist[p.currentIndex]
		st.CurrentSong = &song
	}
	return st
}

// Subscribe returns a channel receiving state snapshots. Slow consumers
// miss intermediate snapshots rather than blocking the player.
func (p *Player) Subscribe() (ch chan State, cancel func()) {
	ch = make(chan State, 16)

	p.listenerMu.Lock()
	p.listeners[ch] = struct{}{}
	p.listenerMu.Unlock()

	cancel = func() {
		p.listenerMu.Lock()
		if _, ok := p.listeners[ch]; ok {
			delete(p.listeners, ch)
			close(ch)
		}
		p.listenerMu.Unlock()
	}
	return ch, cancel
}

func (p *Player) notify() {
	st := p.State()
	p.listenerMu.RLock()
	for ch := range p.listeners {
		select {
		case ch <- st:
		default:
		}
	}
	p.listenerMu.RUnlock()
}

// LoadPlaylist replaces the playlist and current index and loads, without
// autoplay, the song at startIndex.
func (p *Player) LoadPlaylist(ctx context.Context, songs []Song, startIndex int) {
	p.mu.Lock()
	p.playlist = make([]Song, len(songs))
	copy(p.playlist, songs)
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex >= len(p.playlist) {
		startIndex = len(p.playlist) - 1
	}
	p.currentIndex = startIndex
	p.mu.Unlock()

	if startIndex >= 0 {
		p.load(ctx, false)
	} else {
		p.notify()
	}
}

// LoadSong makes the song current: an existing playlist entry with the same
// ID is selected in place, anything else is appended. The song is loaded
// without autoplay either way.
func (p *Player) LoadSong(ctx context.Context, song Song) {
	p.mu.Lock()
	found := -1
	for i, s := range p.playlist {
		if s.ID == song.ID {
			found = i
			break
		}
	}
	if found >= 0 {
		p.currentIndex = found
	} else {
		p.playlist = append(p.playlist, song)
		p.currentIndex = len(p.playlist) - 1
	}
	p.mu.Unlock()

	p.load(ctx, false)
}

// load (re)loads the current playlist entry. The generation counter guards
// against a stale open completing after the operator moved on.
func (p *Player) load(ctx context.Context, autoplay bool) {
	p.mu.Lock()
	if p.currentIndex < 0 || p.currentIndex >= len(p.playlist) {
		p.mu.Unlock()
		return
	}
	song := p.playlist[p.currentIndex]

	p.gen++
	myGen := p.gen
	p.releaseHandleLocked()
	p.progress = 0
	p.duration = song.Duration
	p.errMsg = ""
	p.isPlaying = false

	if !song.HasAsset() {
		// Metadata-only: no real audio, duration comes from song metadata.
		p.isLoading = false
		p.mu.Unlock()
		p.notify()
		return
	}

	p.isLoading = true
	p.mu.Unlock()
	p.notify()

	go func() {
		h, err := p.backend.Open(ctx, song)

		p.mu.Lock()
		if p.gen != myGen {
			p.mu.Unlock()
			if h != nil {
				_ = h.Close()
			}
			return
		}
		if err != nil {
			p.errMsg = err.Error()
			p.isLoading = false
			p.mu.Unlock()
			log.Printf("load error: song %s: %v", song.ID, err)
			p.notify()
			return
		}

		_ = h.SetVolume(p.volume)
		p.handle = h
		p.isLoading = false
		if d := h.Duration(); d > 0 {
			p.duration = d
		}
		if autoplay {
			p.startPlaybackLocked()
		}
		p.mu.Unlock()

		go p.watchDone(h, myGen)
		p.notify()
	}()
}

func (p *Player) watchDone(h Handle, gen int) {
	<-h.Done()

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}

	next := p.currentIndex + 1
	if next < len(p.playlist) {
		p.currentIndex = next
		p.mu.Unlock()
		p.load(context.Background(), true)
		return
	}

	// The spent handle's Done already fired; keeping it would let a later
	// Play start the cadence against a track that can never end again.
	p.releaseHandleLocked()
	p.isPlaying = false
	p.progress = 0
	p.mu.Unlock()
	p.notify()
}

// Play starts playback of the loaded song. In metadata-only mode or with
// nothing loaded it is a no-op.
func (p *Player) Play() {
	p.mu.Lock()
	p.startPlaybackLocked()
	p.mu.Unlock()
	p.notify()
}

func (p *Player) startPlaybackLocked() {
	if p.handle == nil || p.isPlaying {
		return
	}
	if err := p.handle.Play(); err != nil {
		p.errMsg = err.Error()
		return
	}
	p.isPlaying = true
	p.startCadenceLocked()
}

// Pause stops playback and the progress cadence immediately.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.handle == nil || !p.isPlaying {
		p.mu.Unlock()
		return
	}
	_ = p.handle.Pause()
	p.isPlaying = false
	p.progress = p.handle.Position()
	p.stopCadenceLocked()
	p.mu.Unlock()
	p.notify()
}

func (p *Player) Toggle() {
	p.mu.Lock()
	playing := p.isPlaying
	p.mu.Unlock()

	if playing {
		p.Pause()
	} else {
		p.Play()
	}
}

// Next advances to the following playlist entry, if any. Playback carries
// over: a playing player keeps playing on the new song.
func (p *Player) Next(ctx context.Context) {
	p.step(ctx, 1)
}

// Previous moves to the preceding playlist entry, if any.
func (p *Player) Previous(ctx context.Context) {
	p.step(ctx, -1)
}

func (p *Player) step(ctx context.Context, delta int) {
	p.mu.Lock()
	target := p.currentIndex + delta
	if target < 0 || target >= len(p.playlist) {
		p.mu.Unlock()
		return
	}
	p.currentIndex = target
	wasPlaying := p.isPlaying
	p.mu.Unlock()

	p.load(ctx, wasPlaying)
}

// Seek moves the playback position, clamped to the song duration. Works in
// metadata-only mode too, where it just moves the reported progress.
func (p *Player) Seek(pos time.Duration) {
	p.mu.Lock()
	if pos < 0 {
		pos = 0
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	if p.handle != nil {
		_ = p.handle.Seek(pos)
	}
	p.progress = pos
	p.mu.Unlock()
	p.notify()
}

// SetVolume clamps to [0,1], keeps the value across song switches, and
// applies it to the live handle.
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	p.mu.Lock()
	p.volume = v
	if p.handle != nil {
		_ = p.handle.SetVolume(v)
	}
	p.mu.Unlock()
	p.notify()
}

// Close tears the player down: the live handle, the cadence, and every
// subscriber channel.
func (p *Player) Close() {
	p.mu.Lock()
	p.gen++
	p.releaseHandleLocked()
	p.isPlaying = false
	p.mu.Unlock()

	p.listenerMu.Lock()
	for ch := range p.listeners {
		close(ch)
	}
	p.listeners = make(map[chan State]struct{})
	p.listenerMu.Unlock()
}

// releaseHandleLocked stops the cadence and closes the current handle.
// Exactly one handle is alive at a time; this runs before any new open.
func (p *Player) releaseHandleLocked() {
	p.stopCadenceLocked()
	if p.handle != nil {
		_ = p.handle.Close()
		p.handle = nil
	}
}

func (p *Player) startCadenceLocked() {
	if p.cadenceStop != nil {
		return
	}
	stop := make(chan struct{})
	p.cadenceStop = stop
	gen := p.gen

	go func() {
		ticker := time.NewTicker(p.cadence)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.mu.Lock()
				if p.gen != gen || !p.isPlaying || p.handle == nil {
					p.mu.Unlock()
					return
				}
				p.progress = p.handle.Position()
				p.mu.Unlock()
				p.notify()
			}
		}
	}()
}

func (p *Player) stopCadenceLocked() {
	if p.cadenceStop != nil {
		close(p.cadenceStop)
		p.cadenceStop = nil
	}
}
