package speech

import (
	"sync"
	"time"
)

// ProbeTimeout is how long a primary session may take to confirm audio
// before the adapter checks whether the engine is really speaking.
const ProbeTimeout = 3000 * time.Millisecond

// ProbeResult is the outcome of negotiating whether a session started.
type ProbeResult int

const (
	// ProbeStarted means the engine confirmed audio.
	ProbeStarted ProbeResult = iota
	// ProbeTimedOut means no confirmation arrived within the timeout.
	ProbeTimedOut
	// ProbeUnavailable means the engine failed before audio began.
	ProbeUnavailable
)

func (r ProbeResult) String() string {
	switch r {
	case ProbeStarted:
		return "started"
	case ProbeTimedOut:
		return "timed out"
	case ProbeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// session is one dispatch of an utterance to an engine.
type session struct {
	u      *Utterance
	engine Engine
	kind   Kind

	// probing is true while the adapter waits on the probe. Guarded by the
	// adapter's mutex.
	probing bool

	startOnce sync.Once
	startedCh chan struct{}
	failedCh  chan error
}

func newSession(u *Utterance, e Engine, kind Kind) *session {
	return &session{
		u:         u,
		engine:    e,
		kind:      kind,
		probing:   kind == Primary,
		startedCh: make(chan struct{}),
		failedCh:  make(chan error, 1),
	}
}

func (s *session) markStarted() {
	s.startOnce.Do(func() { close(s.startedCh) })
}

func (s *session) started() bool {
	select {
	case <-s.startedCh:
		return true
	default:
		return false
	}
}

func (s *session) fail(err error) {
	select {
	case s.failedCh <- err:
	default:
	}
}

// probe waits for the session to confirm audio. ok is false when the
// utterance ended or was superseded before a result was reached.
func (s *session) probe(timeout time.Duration, closed <-chan struct{}) (result ProbeResult, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.startedCh:
		return ProbeStarted, true
	case <-s.failedCh:
		return ProbeUnavailable, true
	case <-timer.C:
		if s.started() {
			return ProbeStarted, true
		}
		return ProbeTimedOut, true
	case <-s.u.Done():
		return 0, false
	case <-closed:
		return 0, false
	}
}
