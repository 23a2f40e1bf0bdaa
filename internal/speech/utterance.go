package speech

import "sync"

// UtteranceState is the playback state of one Speak request.
type UtteranceState int

const (
	UtteranceIdle UtteranceState = iota
	UtteranceStarting
	UtterancePlaying
	UtterancePaused
	UtteranceEnded
)

func (s UtteranceState) String() string {
	switch s {
	case UtteranceIdle:
		return "idle"
	case UtteranceStarting:
		return "starting"
	case UtterancePlaying:
		return "playing"
	case UtterancePaused:
		return "paused"
	case UtteranceEnded:
		return "ended"
	default:
		return "unknown"
	}
}

var utteranceTransitions = map[UtteranceState][]UtteranceState{
	UtteranceIdle:     {UtteranceStarting, UtteranceEnded},
	UtteranceStarting: {UtterancePlaying, UtteranceEnded},
	UtterancePlaying:  {UtterancePaused, UtteranceEnded},
	UtterancePaused:   {UtterancePlaying, UtteranceEnded},
}

// TransitionFunc observes utterance state changes.
type TransitionFunc func(from, to UtteranceState)

// Utterance tracks one Speak request. Its start callback fires at most once
// and its end callback exactly once.
type Utterance struct {
	text string

	mu        sync.Mutex
	state     UtteranceState
	err       error
	listeners []TransitionFunc
	onStart   func()
	onEnd     func()
	done      chan struct{}

	// cbMu keeps onStart and onEnd from running concurrently.
	cbMu sync.Mutex

	// session is the engine session currently rendering this utterance.
	// Guarded by the adapter's mutex.
	session *session
}

func newUtterance(text string, onStart, onEnd func()) *Utterance {
	return &Utterance{
		text:    text,
		onStart: onStart,
		onEnd:   onEnd,
		done:    make(chan struct{}),
	}
}

// Text returns the requested text.
func (u *Utterance) Text() string { return u.text }

// State returns the current state.
func (u *Utterance) State() UtteranceState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Err returns why the utterance ended, nil for natural completion or stop.
func (u *Utterance) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Done is closed when the utterance ends.
func (u *Utterance) Done() <-chan struct{} { return u.done }

// OnTransition registers fn for every later state change.
func (u *Utterance) OnTransition(fn TransitionFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = append(u.listeners, fn)
}

// transition moves to the given state if allowed and notifies listeners
// outside the lock. It reports whether the state changed.
func (u *Utterance) transition(to UtteranceState, err error) bool {
	u.mu.Lock()
	from := u.state
	allowed := false
	for _, s := range utteranceTransitions[from] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		u.mu.Unlock()
		return false
	}
	u.state = to
	if to == UtteranceEnded {
		u.err = err
	}
	listeners := append([]TransitionFunc(nil), u.listeners...)
	u.mu.Unlock()

	for _, fn := range listeners {
		fn(from, to)
	}
	return true
}

func (u *Utterance) dispatched() {
	u.transition(UtteranceStarting, nil)
}

func (u *Utterance) start() {
	u.cbMu.Lock()
	defer u.cbMu.Unlock()
	if u.transition(UtterancePlaying, nil) && u.onStart != nil {
		u.onStart()
	}
}

func (u *Utterance) finish(err error) {
	u.cbMu.Lock()
	defer u.cbMu.Unlock()
	if !u.transition(UtteranceEnded, err) {
		return
	}
	close(u.done)
	if u.onEnd != nil {
		u.onEnd()
	}
}

func (u *Utterance) ended() bool {
	return u.State() == UtteranceEnded
}
