package player

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/spotify-remote/internal/apierr"
	"github.com/justestif/spotify-remote/internal/client"
)

// DefaultInterval is the time between two playback polls.
const DefaultInterval = 2 * time.Second

// DefaultSettleDelay is how long a skip is given to take effect before the state is read back.
const DefaultSettleDelay = 300 * time.Millisecond

// mutationTimeout bounds background mutations that outlive the caller's context.
const mutationTimeout = 10 * time.Second

// ErrNoTrack is returned by track gestures when nothing is playing.
var ErrNoTrack = errors.New("no track loaded")

// Phase tracks whether a seek gesture owns the progress value.
type Phase int

const (
	// Idle lets polls write every field.
	Idle Phase = iota
	// Seeking means the user is dragging the progress bar.
	Seeking
	// Resyncing means a seek was committed and the authoritative position is being read back.
	Resyncing
)

func (p Phase) String() string {
	switch p {
	case Seeking:
		return "seeking"
	case Resyncing:
		return "resyncing"
	default:
		return "idle"
	}
}

// Backend is the subset of the proxy client used by the poller.
type Backend interface {
	PlayerState(ctx context.Context) (*client.PlaybackState, error)
	Toggle(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, positionMs int) error
	SetVolume(ctx context.Context, percent int) error
	Like(ctx context.Context, trackID string) error
	Unlike(ctx context.Context, trackID string) error
	LikedStatus(ctx context.Context, ids []string) (map[string]bool, error)
}

var _ Backend = (*client.Client)(nil)

// Poller mirrors the remote player and applies user gestures on top of it.
type Poller struct {
	backend  Backend
	interval time.Duration
	settle   time.Duration
	logger   *log.Logger
	onChange func(Snapshot)

	mu      sync.Mutex
	snap    Snapshot
	seq     uint64
	phase   Phase
	epoch   uint64
	liked   map[string]bool
	loading map[string]struct{}
	lastErr error

	// notifyMu serializes onChange; delivered is the seq of the last snapshot handed out.
	notifyMu  sync.Mutex
	delivered uint64

	pending sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithSettleDelay sets the pause between a skip and the read-back. Zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.settle = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// WithOnChange registers a callback invoked after every local state change.
// It runs on the goroutine that caused the change, one call at a time, and a snapshot
// older than one already delivered is dropped. fn must not call back into the Poller.
func WithOnChange(fn func(Snapshot)) Option {
	return func(p *Poller) {
		p.onChange = fn
	}
}

// NewPoller creates a Poller for backend.
func NewPoller(backend Backend, opts ...Option) *Poller {
	p := &Poller{
		backend:  backend,
		interval: DefaultInterval,
		settle:   DefaultSettleDelay,
		logger:   log.Default(),
		liked:    make(map[string]bool),
		loading:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls immediately and then on every interval until ctx is done.
// It stops early with apierr.ErrUnauthenticated once the session is gone.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); errors.Is(err, apierr.ErrUnauthenticated) {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll fetches the playback state once. A failed fetch keeps the previous snapshot.
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	started := p.epoch
	p.mu.Unlock()

	state, err := p.backend.PlayerState(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("playback poll failed", "err", err)
		}
		p.setErr(err)
		return err
	}

	p.mu.Lock()
	previous := p.snap.TrackID
	next := FromState(state)
	// progress belongs to the gesture while one is open or began after this fetch
	if p.phase != Idle || p.epoch != started {
		next.ProgressMs = p.snap.ProgressMs
	}
	p.snap = next
	p.lastErr = nil
	p.loadLikedLocked(ctx, previous)
	snap, seq := p.publishLocked()
	p.mu.Unlock()

	p.notify(snap, seq)
	return nil
}

// BeginSeek opens a seek gesture. Polls stop writing progress until the gesture resolves.
func (p *Poller) BeginSeek() {
	p.mu.Lock()
	p.phase = Seeking
	p.epoch++
	p.mu.Unlock()
}

// DragSeek moves the local progress while a gesture is open.
func (p *Poller) DragSeek(positionMs int) {
	p.mu.Lock()
	if p.phase != Seeking {
		p.mu.Unlock()
		return
	}
	p.snap.ProgressMs = p.clampLocked(positionMs)
	snap, seq := p.publishLocked()
	p.mu.Unlock()

	p.notify(snap, seq)
}

// CommitSeek sends the seek and reads the authoritative position back. The read-back
// runs even when the seek fails. The returned error is the seek's.
func (p *Poller) CommitSeek(ctx context.Context, positionMs int) error {
	p.mu.Lock()
	p.phase = Resyncing
	p.epoch++
	commit := p.epoch
	positionMs = p.clampLocked(positionMs)
	p.snap.ProgressMs = positionMs
	snap, seq := p.publishLocked()
	p.mu.Unlock()
	p.notify(snap, seq)

	seekErr := p.backend.Seek(ctx, positionMs)
	if seekErr != nil {
		p.logger.Error("seek failed", "position_ms", positionMs, "err", seekErr)
	}

	state, err := p.backend.PlayerState(ctx)

	p.mu.Lock()
	previous := p.snap.TrackID
	superseded := p.epoch != commit
	switch {
	case err != nil:
		p.lastErr = err
		p.logger.Warn("resync after seek failed", "err", err)
	case superseded:
		next := FromState(state)
		next.ProgressMs = p.snap.ProgressMs
		p.snap = next
	default:
		p.snap = FromState(state)
	}
	if !superseded {
		p.phase = Idle
		// fetches that began during the resync must not write progress
		p.epoch++
	}
	p.loadLikedLocked(ctx, previous)
	snap, seq = p.publishLocked()
	p.mu.Unlock()
	p.notify(snap, seq)

	if seekErr != nil {
		return fmt.Errorf("seeking to %dms: %w", positionMs, seekErr)
	}
	return nil
}

// ToggleLike flips the liked flag of the current track and sends the mutation in the
// background. A failed mutation is logged and recorded but the local flag is not rolled back.
func (p *Poller) ToggleLike(ctx context.Context) error {
	p.mu.Lock()
	trackID := p.snap.TrackID
	if trackID == "" {
		p.mu.Unlock()
		return ErrNoTrack
	}
	wasLiked := p.liked[trackID]
	p.liked[trackID] = !wasLiked
	snap, seq := p.publishLocked()
	p.mu.Unlock()
	p.notify(snap, seq)

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
		defer cancel()

		mutate := p.backend.Like
		if wasLiked {
			mutate = p.backend.Unlike
		}
		if err := mutate(ctx, trackID); err != nil {
			p.logger.Error("like toggle failed", "track_id", trackID, "liked", !wasLiked, "err", err)
			p.setErr(err)
		}
	}()
	return nil
}

// Wait blocks until every background mutation and liked-status load has finished.
func (p *Poller) Wait() {
	p.pending.Wait()
}

// SetVolume sets the device volume optimistically. On failure the device volume is read back.
func (p *Poller) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return apierr.Invalid("volume %d must be between 0 and 100", percent)
	}

	p.mu.Lock()
	p.snap.DeviceVolume = percent
	p.snap.HasVolume = true
	snap, seq := p.publishLocked()
	p.mu.Unlock()
	p.notify(snap, seq)

	err := p.backend.SetVolume(ctx, percent)
	if err == nil {
		return nil
	}
	p.logger.Error("set volume failed", "percent", percent, "err", err)

	state, rerr := p.backend.PlayerState(ctx)
	if rerr != nil {
		p.setErr(rerr)
		return fmt.Errorf("setting volume: %w", err)
	}

	actual := FromState(state)
	p.mu.Lock()
	p.snap.DeviceVolume = actual.DeviceVolume
	p.snap.HasVolume = actual.HasVolume
	snap, seq = p.publishLocked()
	p.mu.Unlock()
	p.notify(snap, seq)

	return fmt.Errorf("setting volume: %w", err)
}

// Toggle pauses or resumes playback and refreshes the snapshot.
func (p *Poller) Toggle(ctx context.Context) error {
	return p.mutate(ctx, "toggling playback", p.backend.Toggle, 0)
}

// Next skips to the next track and refreshes the snapshot once the skip has settled.
func (p *Poller) Next(ctx context.Context) error {
	return p.mutate(ctx, "skipping to next", p.backend.Next, p.settle)
}

// Previous skips to the previous track and refreshes the snapshot once the skip has settled.
func (p *Poller) Previous(ctx context.Context) error {
	return p.mutate(ctx, "skipping to previous", p.backend.Previous, p.settle)
}

func (p *Poller) mutate(ctx context.Context, action string, fn func(context.Context) error, settle time.Duration) error {
	if err := fn(ctx); err != nil {
		p.setErr(err)
		return fmt.Errorf("%s: %w", action, err)
	}

	if settle > 0 {
		// the player reports the old track for a moment after a skip
		timer := time.NewTimer(settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return p.Poll(ctx)
}

// LoadLiked merges the liked flags of ids into the local set.
func (p *Poller) LoadLiked(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	status, err := p.backend.LikedStatus(ctx, ids)
	if err != nil {
		p.setErr(err)
		return fmt.Errorf("loading liked status: %w", err)
	}

	p.mu.Lock()
	maps.Copy(p.liked, status)
	p.mu.Unlock()
	return nil
}

// loadLikedLocked fetches the liked flag of a newly loaded track in the background.
// Callers hold p.mu.
func (p *Poller) loadLikedLocked(ctx context.Context, previous string) {
	trackID := p.snap.TrackID
	if trackID == "" || trackID == previous {
		return
	}
	if _, ok := p.liked[trackID]; ok {
		return
	}
	if _, ok := p.loading[trackID]; ok {
		return
	}
	p.loading[trackID] = struct{}{}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
		defer cancel()

		status, err := p.backend.LikedStatus(ctx, []string{trackID})

		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.loading, trackID)
		if err != nil {
			p.logger.Warn("loading liked status failed", "track_id", trackID, "err", err)
			return
		}
		// a toggle made while the request was in flight wins
		if _, ok := p.liked[trackID]; !ok {
			p.liked[trackID] = status[trackID]
		}
	}()
}

// Snapshot returns the current local state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Phase returns the current seek phase.
func (p *Poller) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Liked reports the local liked flag of trackID.
func (p *Poller) Liked(trackID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liked[trackID]
}

// LastErr returns the most recent non-fatal error, cleared by the next successful poll.
func (p *Poller) LastErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Poller) setErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// publishLocked stamps the current snapshot for delivery. Callers hold p.mu.
func (p *Poller) publishLocked() (Snapshot, uint64) {
	p.seq++
	return p.snap, p.seq
}

// notify hands snap to onChange unless a newer snapshot was already delivered.
func (p *Poller) notify(snap Snapshot, seq uint64) {
	if p.onChange == nil {
		return
	}

	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if seq <= p.delivered {
		return
	}
	p.delivered = seq
	p.onChange(snap)
}

// clampLocked bounds a position to the current track. Callers hold p.mu.
func (p *Poller) clampLocked(positionMs int) int {
	if positionMs < 0 {
		return 0
	}
	if d := p.snap.DurationMs; d > 0 && positionMs > d {
		return d
	}
	return positionMs
}
