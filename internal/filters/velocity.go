package filters

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
)

// trackPoint is one accepted observation in a track's history.
type trackPoint struct {
	Frame int
	Box   BBox
}

// trackState is the per-track record inside the arena.
type trackState struct {
	history    []trackPoint // bounded, oldest first
	lastFrame  int
	generation uint64 // arena generation at last observation
}

// TrackArena owns per-track bounded (frame, bbox) histories and applies
// velocity plausibility checks to each new observation. It replaces
// lifetime-implicit cleanup of keyed maps with an explicit arena:
// tracks not observed for StaleFrames frames are evicted on the next
// EvictStale call, keyed by an arena generation counter.
//
// The arena is owned by one evaluation context. The mutex guards
// against incidental cross-goroutine reads (metrics, debugging), not
// concurrent evaluation, which is not supported.
type TrackArena struct {
	MaxVelocityPxPerFrame float64 // inferred velocity bound (displacement/elapsed)
	MaxJumpDistancePx     float64 // single-frame jump bound (identity-switch heuristic)
	MaxHistory            int
	StaleFrames           int

	mu         sync.Mutex
	tracks     map[string]*trackState
	generation uint64
}

// NewTrackArena creates an empty arena with the given bounds.
func NewTrackArena(maxVelocity, maxJump float64, maxHistory, staleFrames int) *TrackArena {
	if maxHistory < 2 {
		maxHistory = 2
	}
	return &TrackArena{
		MaxVelocityPxPerFrame: maxVelocity,
		MaxJumpDistancePx:     maxJump,
		MaxHistory:            maxHistory,
		StaleFrames:           staleFrames,
		tracks:                make(map[string]*trackState),
	}
}

// NewTrackID mints a globally unique track identity. Used when the
// upstream detector provides none; uniqueness across arena resets
// prevents history bleed between sessions.
func NewTrackID() string {
	return fmt.Sprintf("trk_%s", uuid.NewString())
}

// Observe applies the velocity checks to one observation and, when
// accepted, appends it to the track's history. Returns false when the
// observation must be dropped for this frame: the inferred velocity
// (displacement over elapsed frames) exceeds the maximum, or a
// single-frame jump exceeds the absolute distance bound.
//
// An empty trackID means the detection is untracked; it is accepted
// without history. Non-increasing frame indices violate the caller's
// ordering contract and are accepted without being recorded.
func (a *TrackArena) Observe(trackID string, frame int, box BBox) bool {
	if trackID == "" {
		return true
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ts, ok := a.tracks[trackID]
	if !ok {
		a.tracks[trackID] = &trackState{
			history:    []trackPoint{{Frame: frame, Box: box}},
			lastFrame:  frame,
			generation: a.generation,
		}
		return true
	}

	last := ts.history[len(ts.history)-1]
	elapsed := frame - last.Frame
	if elapsed <= 0 {
		return true
	}

	cx, cy := box.Center()
	lx, ly := last.Box.Center()
	displacement := math.Hypot(cx-lx, cy-ly)

	if elapsed == 1 && displacement > a.MaxJumpDistancePx {
		return false
	}
	if displacement/float64(elapsed) > a.MaxVelocityPxPerFrame {
		return false
	}

	ts.history = append(ts.history, trackPoint{Frame: frame, Box: box})
	if len(ts.history) > a.MaxHistory {
		ts.history = ts.history[len(ts.history)-a.MaxHistory:]
	}
	ts.lastFrame = frame
	ts.generation = a.generation
	return true
}

// EvictStale removes tracks not observed within StaleFrames of the
// current frame and advances the arena generation. Returns the number
// of evicted tracks.
func (a *TrackArena) EvictStale(currentFrame int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.generation++
	evicted := 0
	for id, ts := range a.tracks {
		if currentFrame-ts.lastFrame > a.StaleFrames {
			delete(a.tracks, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live tracks.
func (a *TrackArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tracks)
}

// HistoryLen returns the history length for a track, 0 when unknown.
func (a *TrackArena) HistoryLen(trackID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ts, ok := a.tracks[trackID]; ok {
		return len(ts.history)
	}
	return 0
}

// Reset drops all track state. Called on session end.
func (a *TrackArena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tracks = make(map[string]*trackState)
	a.generation = 0
}
