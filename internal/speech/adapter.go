package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// State is a snapshot of the adapter for display.
type State struct {
	Engine      Kind
	EngineName  string
	Switched    bool
	Playing     bool
	Paused      bool
	CurrentText string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithProbeTimeout overrides ProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.probeTimeout = d
		}
	}
}

// Adapter presents one speak/stop/pause/resume contract over a primary and
// a fallback engine. When the primary fails to start audio it switches to
// the fallback for the rest of its life and replays the request there.
//
// One Adapter belongs to one screen: create it on mount, Close it on
// unmount.
type Adapter struct {
	engines      [2]Engine
	probeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	initOnce sync.Once
	resolved chan struct{}
	// settled[kind] closes once that engine's Prepare has returned.
	settled [2]chan struct{}

	// dispatchMu serializes stopping the previous session and starting the
	// next one, so two sessions never overlap.
	dispatchMu sync.Mutex

	mu          sync.Mutex
	ready       [2]bool
	failed      [2]bool
	selected    Kind
	switched    bool
	current     *Utterance
	currentText string
	closed      bool
}

// New creates an adapter. Either engine may be nil.
func New(primary, fallback Engine, opts ...Option) *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		engines:      [2]Engine{primary, fallback},
		probeTimeout: ProbeTimeout,
		ctx:          ctx,
		cancel:       cancel,
		resolved:     make(chan struct{}),
		settled:      [2]chan struct{}{make(chan struct{}), make(chan struct{})},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init prepares both engines in the background and returns immediately.
// Requests made before an engine is ready wait for the first one that is.
// Calling Init more than once has no effect.
func (a *Adapter) Init(ctx context.Context) {
	a.initOnce.Do(func() {
		var wg sync.WaitGroup
		for _, kind := range []Kind{Primary, Fallback} {
			e := a.engines[kind]
			if e == nil {
				a.prepared(kind, ErrEngineUnavailable)
				continue
			}
			wg.Add(1)
			go func(kind Kind, e Engine) {
				defer wg.Done()
				a.prepared(kind, e.Prepare(ctx))
			}(kind, e)
		}
		go func() {
			wg.Wait()
			a.resolve()
		}()
	})
}

func (a *Adapter) prepared(kind Kind, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.failed[kind] = true
		log.Warn("speech engine unavailable", "slot", kind, "engine", a.engineName(kind), "error", err)
		if kind == Primary && !a.switched {
			a.selected = Fallback
			a.switched = true
		}
	} else {
		a.ready[kind] = true
		log.Debug("speech engine ready", "slot", kind, "engine", a.engineName(kind))
	}

	select {
	case <-a.settled[kind]:
	default:
		close(a.settled[kind])
	}

	if a.ready[Primary] || a.ready[Fallback] || (a.failed[Primary] && a.failed[Fallback]) {
		a.resolveLocked()
	}
}

func (a *Adapter) resolve() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resolveLocked()
}

func (a *Adapter) resolveLocked() {
	select {
	case <-a.resolved:
	default:
		close(a.resolved)
	}
}

func (a *Adapter) engineName(kind Kind) string {
	if e := a.engines[kind]; e != nil {
		return e.Name()
	}
	return "none"
}

// Speak stops any playback in progress, then plays text. onEnd fires
// exactly once: on completion, on stop, on error, or immediately when no
// engine is available. onStart fires when audio begins, possibly late if
// playback had to move to the fallback engine. The previous utterance's
// onEnd always fires before this one's onStart. Both callbacks may run on
// any goroutine and must not call back into the adapter synchronously.
func (a *Adapter) Speak(text string, onStart, onEnd func()) *Utterance {
	u := newUtterance(text, onStart, onEnd)

	a.dispatchMu.Lock()
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.dispatchMu.Unlock()
		u.finish(ErrClosed)
		return u
	}
	prev := a.current
	a.current = u
	a.currentText = text
	var prevSession *session
	if prev != nil {
		prevSession = prev.session
		prev.session = nil
	}
	a.mu.Unlock()

	if prevSession != nil {
		prevSession.engine.Cancel()
	}
	a.dispatchMu.Unlock()

	if prev != nil {
		prev.finish(nil)
	}

	if strings.TrimSpace(text) == "" {
		a.release(u)
		u.finish(ErrEmptyText)
		return u
	}

	a.Init(a.ctx)
	go a.run(u)
	return u
}

// run waits for an engine, dispatches the utterance and, on the primary,
// negotiates whether audio really started.
func (a *Adapter) run(u *Utterance) {
	select {
	case <-a.resolved:
	case <-u.Done():
		return
	case <-a.ctx.Done():
		return
	}

	kind, ok := a.pick()
	if !ok {
		log.Warn("no speech engine available, skipping playback")
		a.release(u)
		u.finish(ErrNoEngine)
		return
	}

	s, err := a.dispatch(u, kind)
	if err != nil {
		if kind == Primary {
			a.fallBack(u, ProbeUnavailable, err)
			return
		}
		a.release(u)
		u.finish(err)
		return
	}
	if s == nil || kind != Primary {
		return
	}

	result, ok := s.probe(a.probeTimeout, a.ctx.Done())
	if !ok {
		return
	}

	a.mu.Lock()
	s.probing = false
	a.mu.Unlock()

	switch result {
	case ProbeStarted:
		return
	case ProbeTimedOut:
		if s.engine.Speaking() {
			// Audio is playing but the start event was lost.
			a.onStarted(s)
			return
		}
	}
	a.fallBack(u, result, nil)
}

// pick returns the engine slot to use: the selected one when ready,
// otherwise whichever is ready.
func (a *Adapter) pick() (Kind, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready[a.selected] {
		return a.selected, true
	}
	for _, kind := range []Kind{Primary, Fallback} {
		if a.ready[kind] && !(kind == Primary && a.switched) {
			return kind, true
		}
	}
	return 0, false
}

// dispatch starts a session for u on the given engine. It returns a nil
// session when u was superseded before dispatch.
func (a *Adapter) dispatch(u *Utterance, kind Kind) (*session, error) {
	a.dispatchMu.Lock()
	defer a.dispatchMu.Unlock()

	a.mu.Lock()
	if a.current != u || a.closed {
		a.mu.Unlock()
		return nil, nil
	}
	e := a.engines[kind]
	s := newSession(u, e, kind)
	u.session = s
	a.mu.Unlock()

	u.dispatched()
	log.Debug("speech dispatch", "slot", kind, "engine", e.Name(), "chars", len(u.text))

	err := e.Speak(a.ctx, u.text, Callbacks{
		Started:  func() { a.onStarted(s) },
		Finished: func(err error) { a.onFinished(s, err) },
	})
	if err != nil {
		a.mu.Lock()
		if u.session == s {
			u.session = nil
		}
		a.mu.Unlock()
		return nil, err
	}
	return s, nil
}

// fallBack abandons the primary session of u, switches to the fallback
// engine permanently and replays u there.
func (a *Adapter) fallBack(u *Utterance, result ProbeResult, cause error) {
	a.dispatchMu.Lock()
	a.mu.Lock()
	if a.current != u || a.closed {
		a.mu.Unlock()
		a.dispatchMu.Unlock()
		return
	}
	if s := u.session; s != nil && s.started() {
		// Started raced with the timeout; keep the primary session.
		a.mu.Unlock()
		a.dispatchMu.Unlock()
		return
	}
	stalled := u.session
	u.session = nil
	if !a.switched {
		a.switched = true
		a.selected = Fallback
		log.Warn("primary speech engine did not start, switching to fallback",
			"probe", result, "primary", a.engineName(Primary), "fallback", a.engineName(Fallback), "error", cause)
	}
	a.mu.Unlock()

	if stalled != nil {
		stalled.engine.Cancel()
	}
	a.dispatchMu.Unlock()

	// The fallback may still be preparing; the request is replayed once it
	// settles.
	select {
	case <-a.settled[Fallback]:
	case <-u.Done():
		return
	case <-a.ctx.Done():
		return
	}

	a.mu.Lock()
	fallbackReady := a.ready[Fallback]
	a.mu.Unlock()
	if !fallbackReady {
		a.release(u)
		u.finish(errors.Join(ErrNoEngine, cause))
		return
	}

	if _, err := a.dispatch(u, Fallback); err != nil {
		a.release(u)
		u.finish(err)
	}
}

func (a *Adapter) active(s *session) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current == s.u && s.u.session == s
}

func (a *Adapter) onStarted(s *session) {
	if !a.active(s) {
		return
	}
	s.markStarted()
	s.u.start()
}

func (a *Adapter) onFinished(s *session, err error) {
	a.mu.Lock()
	if a.current != s.u || s.u.session != s {
		a.mu.Unlock()
		return
	}
	if err != nil && s.probing && !s.started() {
		a.mu.Unlock()
		s.fail(err)
		return
	}
	s.u.session = nil
	a.current = nil
	a.mu.Unlock()

	if err != nil && !errors.Is(err, ErrCanceled) {
		log.Warn("speech playback failed", "engine", s.engine.Name(), "error", err)
	}
	s.u.finish(err)
}

// release forgets u if it is still the current utterance.
func (a *Adapter) release(u *Utterance) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == u {
		u.session = nil
		a.current = nil
	}
}

// Stop ends the current utterance, firing its onEnd.
func (a *Adapter) Stop() {
	a.dispatchMu.Lock()
	a.mu.Lock()
	u := a.current
	a.current = nil
	var s *session
	if u != nil {
		s = u.session
		u.session = nil
	}
	a.mu.Unlock()

	if s != nil {
		s.engine.Cancel()
	}
	a.dispatchMu.Unlock()

	if u != nil {
		u.finish(nil)
	}
}

// Pause pauses playback. It does nothing unless audio is playing.
func (a *Adapter) Pause() {
	a.mu.Lock()
	u := a.current
	var s *session
	if u != nil {
		s = u.session
	}
	a.mu.Unlock()

	if s == nil || u.State() != UtterancePlaying {
		return
	}
	s.engine.Pause()
	u.transition(UtterancePaused, nil)
}

// Resume resumes paused playback. It does nothing unless paused.
func (a *Adapter) Resume() {
	a.mu.Lock()
	u := a.current
	var s *session
	if u != nil {
		s = u.session
	}
	a.mu.Unlock()

	if s == nil || u.State() != UtterancePaused {
		return
	}
	s.engine.Resume()
	u.transition(UtterancePlaying, nil)
}

// Engine returns the selected engine slot.
func (a *Adapter) Engine() Kind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// State returns a snapshot for display.
func (a *Adapter) State() State {
	a.mu.Lock()
	st := State{
		Engine:      a.selected,
		EngineName:  a.engineName(a.selected),
		Switched:    a.switched,
		CurrentText: a.currentText,
	}
	u := a.current
	a.mu.Unlock()

	if u != nil {
		switch u.State() {
		case UtterancePlaying:
			st.Playing = true
		case UtterancePaused:
			st.Paused = true
		}
	}
	return st
}

// Close stops playback and releases both engines. It must be called when
// the owning screen goes away. Later Speak calls end immediately.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.Stop()

	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.cancel()

	var errs []error
	for _, e := range a.engines {
		if e == nil {
			continue
		}
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	log.Debug("speech adapter closed")
	return errors.Join(errs...)
}
