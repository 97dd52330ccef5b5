package scroll

// Momentum tuning. Velocity decays by the friction factor each frame and
// the animation stops once it drops below the threshold.
const (
	momentumFriction  = 0.92
	momentumThreshold = 0.5
)

// Scheduler requests at most one callback on the next frame. Schedule
// replaces any previously pending callback and returns a cancel function.
// The host adapts its frame loop (or a ticker in tests) to this interface.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// State owns the authoritative scroll position. Wheel input applies an
// immediate delta and seeds a velocity; a self-rescheduling per-frame step
// decays the velocity until it stalls. Positions are always clamped to
// [0, max] per axis.
type State struct {
	top, left       float64
	maxTop, maxLeft float64

	velocity float64
	sched    Scheduler
	cancel   func()
	onChange func()
}

// NewState creates a scroll state driven by the given scheduler. onChange
// fires after every position change, including momentum steps; it is where
// the owner marks the renderer dirty. Both may be nil.
func NewState(sched Scheduler, onChange func()) *State {
	return &State{sched: sched, onChange: onChange}
}

// SetBounds sets the maximum scroll extents (content size minus viewport)
// and re-clamps the current position.
func (s *State) SetBounds(maxTop, maxLeft float64) {
	s.maxTop = max(0, maxTop)
	s.maxLeft = max(0, maxLeft)
	s.setPosition(s.top, s.left)
}

// Top returns the vertical scroll position.
func (s *State) Top() float64 { return s.top }

// Left returns the horizontal scroll position.
func (s *State) Left() float64 { return s.left }

// ScrollTo jumps to an absolute position, cancelling any momentum.
func (s *State) ScrollTo(top, left float64) {
	s.stopMomentum()
	s.setPosition(top, left)
}

// Wheel applies a discrete wheel delta. The delta takes effect immediately
// and replaces the current momentum velocity.
func (s *State) Wheel(dy, dx float64) {
	s.stopMomentum()
	s.setPosition(s.top+dy, s.left+dx)
	s.velocity = dy
	if s.sched != nil && abs(s.velocity) >= momentumThreshold {
		s.cancel = s.sched.Schedule(s.step)
	}
}

// step is the per-frame momentum callback. It reschedules itself until the
// velocity decays below the threshold or the position hits a bound.
func (s *State) step() {
	s.cancel = nil
	s.velocity *= momentumFriction
	if abs(s.velocity) < momentumThreshold {
		s.velocity = 0
		return
	}

	before := s.top
	s.setPosition(s.top+s.velocity, s.left)
	if s.top == before {
		// Pinned against a bound; let the remaining energy go.
		s.velocity = 0
		return
	}
	s.cancel = s.sched.Schedule(s.step)
}

// Stop cancels any in-flight momentum. Called on teardown and before
// programmatic scrolls.
func (s *State) Stop() { s.stopMomentum() }

func (s *State) stopMomentum() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.velocity = 0
}

func (s *State) setPosition(top, left float64) {
	top = clampF(top, 0, s.maxTop)
	left = clampF(left, 0, s.maxLeft)
	if top == s.top && left == s.left {
		return
	}
	s.top, s.left = top, left
	if s.onChange != nil {
		s.onChange()
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
