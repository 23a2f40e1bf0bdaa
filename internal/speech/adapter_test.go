package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeEngine is a scriptable Engine.
type fakeEngine struct {
	name         string
	prepareErr   error
	prepareDelay time.Duration
	speakErr     error
	failAfter    error // reported through Finished before start
	silent       bool  // never confirms start
	busyButMute  bool  // Speaking() is true even though start never fires

	mu       sync.Mutex
	spoken   []string
	speaking bool
	cb       Callbacks
	canceled int
	paused   int
	resumed  int
	closed   bool
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Prepare(ctx context.Context) error {
	if f.prepareDelay > 0 {
		select {
		case <-time.After(f.prepareDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.prepareErr
}

func (f *fakeEngine) Speak(_ context.Context, text string, cb Callbacks) error {
	if f.speakErr != nil {
		return f.speakErr
	}
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.cb = cb
	f.speaking = !f.silent || f.busyButMute
	f.mu.Unlock()

	switch {
	case f.failAfter != nil:
		go cb.Finished(f.failAfter)
	case !f.silent:
		go cb.Started()
	}
	return nil
}

// finish completes the current session naturally.
func (f *fakeEngine) finish() {
	f.mu.Lock()
	cb := f.cb
	f.speaking = false
	f.mu.Unlock()
	if cb.Finished != nil {
		cb.Finished(nil)
	}
}

func (f *fakeEngine) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *fakeEngine) Pause() {
	f.mu.Lock()
	f.paused++
	f.mu.Unlock()
}

func (f *fakeEngine) Resume() {
	f.mu.Lock()
	f.resumed++
	f.mu.Unlock()
}

func (f *fakeEngine) Cancel() {
	f.mu.Lock()
	f.canceled++
	f.speaking = false
	cb := f.cb
	f.mu.Unlock()
	if cb.Finished != nil {
		// Late cancellation reports must be ignored by the adapter.
		go cb.Finished(ErrCanceled)
	}
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func (f *fakeEngine) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

// recorder collects callback events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	notify chan string
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan string, 32)}
}

func (r *recorder) callbacks(label string) (func(), func()) {
	return func() { r.add("start:" + label) }, func() { r.add("end:" + label) }
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.notify <- ev
}

func (r *recorder) wait(t *testing.T, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-r.notify:
			if ev == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q; got %v", want, r.snapshot())
		}
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(ev string) int {
	n := 0
	for _, e := range r.snapshot() {
		if e == ev {
			n++
		}
	}
	return n
}

func indexOf(events []string, ev string) int {
	for i, e := range events {
		if e == ev {
			return i
		}
	}
	return -1
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestAdapter(t *testing.T, primary, fallback Engine) *Adapter {
	t.Helper()
	a := New(primary, fallback, WithProbeTimeout(50*time.Millisecond))
	a.Init(context.Background())
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAdapter_SpeakLifecycle(t *testing.T) {
	primary := &fakeEngine{name: "local"}
	a := newTestAdapter(t, primary, &fakeEngine{name: "remote"})
	rec := newRecorder()

	var transitions []UtteranceState
	var tmu sync.Mutex

	onStart, onEnd := rec.callbacks("hello")
	u := a.Speak("hello", onStart, onEnd)
	u.OnTransition(func(_, to UtteranceState) {
		tmu.Lock()
		transitions = append(transitions, to)
		tmu.Unlock()
	})

	rec.wait(t, "start:hello")
	if st := a.State(); !st.Playing || st.CurrentText != "hello" || st.Engine != Primary {
		t.Errorf("unexpected state %+v", st)
	}

	primary.finish()
	rec.wait(t, "end:hello")

	<-u.Done()
	if u.State() != UtteranceEnded || u.Err() != nil {
		t.Errorf("utterance state=%v err=%v", u.State(), u.Err())
	}
	if st := a.State(); st.Playing || st.Paused || st.CurrentText != "hello" {
		t.Errorf("state after end %+v", st)
	}

	tmu.Lock()
	defer tmu.Unlock()
	if len(transitions) == 0 || transitions[len(transitions)-1] != UtteranceEnded {
		t.Errorf("transitions = %v, want to end with ended", transitions)
	}
}

func TestAdapter_SecondSpeakStopsFirst(t *testing.T) {
	primary := &fakeEngine{name: "local"}
	a := newTestAdapter(t, primary, &fakeEngine{name: "remote"})
	rec := newRecorder()

	s1, e1 := rec.callbacks("hello")
	a.Speak("hello", s1, e1)
	rec.wait(t, "start:hello")

	s2, e2 := rec.callbacks("world")
	a.Speak("world", s2, e2)
	rec.wait(t, "start:world")

	// Give the late cancellation report a chance to arrive.
	time.Sleep(20 * time.Millisecond)

	events := rec.snapshot()
	endHello := indexOf(events, "end:hello")
	startWorld := indexOf(events, "start:world")
	if endHello < 0 || endHello > startWorld {
		t.Errorf("end:hello must precede start:world, got %v", events)
	}
	if n := rec.count("end:hello"); n != 1 {
		t.Errorf("end:hello fired %d times", n)
	}
	if primary.cancelCount() < 1 {
		t.Error("first session was not canceled")
	}
	if st := a.State(); st.CurrentText != "world" || !st.Playing {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestAdapter_BackToBackSpeak(t *testing.T) {
	primary := &fakeEngine{name: "local"}
	a := newTestAdapter(t, primary, &fakeEngine{name: "remote"})
	rec := newRecorder()

	s1, e1 := rec.callbacks("hello")
	first := a.Speak("hello", s1, e1)
	s2, e2 := rec.callbacks("world")
	a.Speak("world", s2, e2)

	rec.wait(t, "start:world")
	<-first.Done()

	if n := rec.count("end:hello"); n != 1 {
		t.Errorf("end:hello fired %d times", n)
	}
	events := rec.snapshot()
	if indexOf(events, "end:hello") > indexOf(events, "start:world") {
		t.Errorf("end:hello must precede start:world, got %v", events)
	}
	if i := indexOf(events, "start:hello"); i >= 0 && i > indexOf(events, "end:hello") {
		t.Errorf("hello started after it ended: %v", events)
	}

	texts := primary.texts()
	if len(texts) == 0 || texts[len(texts)-1] != "world" {
		t.Errorf("engine should end up speaking world, spoke %v", texts)
	}
}

func TestAdapter_FallbackAfterProbeTimeout(t *testing.T) {
	primary := &fakeEngine{name: "local", silent: true}
	fallback := &fakeEngine{name: "remote"}
	a := newTestAdapter(t, primary, fallback)
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("hello")
	a.Speak("hello", onStart, onEnd)
	rec.wait(t, "start:hello")

	if a.Engine() != Fallback {
		t.Fatalf("engine = %v, want fallback", a.Engine())
	}
	if !a.State().Switched {
		t.Error("state should report the switch")
	}
	if primary.cancelCount() != 1 {
		t.Errorf("stalled primary canceled %d times, want 1", primary.cancelCount())
	}
	if got := fallback.texts(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("fallback spoke %v, want [hello]", got)
	}
	if rec.count("end:hello") != 0 {
		t.Error("caller must not see an end before the replayed start")
	}

	// The switch is permanent.
	s2, e2 := rec.callbacks("again")
	a.Speak("again", s2, e2)
	rec.wait(t, "start:again")
	if got := primary.texts(); len(got) != 1 {
		t.Errorf("primary used after switch: %v", got)
	}
	if got := fallback.texts(); len(got) != 2 || got[1] != "again" {
		t.Errorf("fallback spoke %v", got)
	}
}

func TestAdapter_TimeoutWhileSpeakingKeepsPrimary(t *testing.T) {
	primary := &fakeEngine{name: "local", silent: true, busyButMute: true}
	fallback := &fakeEngine{name: "remote"}
	a := newTestAdapter(t, primary, fallback)
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("hello")
	a.Speak("hello", onStart, onEnd)
	rec.wait(t, "start:hello")

	if a.Engine() != Primary {
		t.Errorf("engine = %v, want primary", a.Engine())
	}
	if len(fallback.texts()) != 0 {
		t.Error("fallback should not have been used")
	}
}

func TestAdapter_PrimaryFailureFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakeEngine
	}{
		{"speak error", &fakeEngine{name: "local", speakErr: ErrSynthesisFailed}},
		{"error before start", &fakeEngine{name: "local", failAfter: ErrSynthesisFailed}},
		{"prepare error", &fakeEngine{name: "local", prepareErr: ErrEngineUnavailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &fakeEngine{name: "remote"}
			a := newTestAdapter(t, tt.primary, fallback)
			rec := newRecorder()

			onStart, onEnd := rec.callbacks("hello")
			a.Speak("hello", onStart, onEnd)
			rec.wait(t, "start:hello")

			eventually(t, func() bool { return a.Engine() == Fallback })
			if got := fallback.texts(); len(got) != 1 || got[0] != "hello" {
				t.Errorf("fallback spoke %v", got)
			}
		})
	}
}

func TestAdapter_NoEngineEndsImmediately(t *testing.T) {
	tests := []struct {
		name              string
		primary, fallback Engine
	}{
		{"nil engines", nil, nil},
		{"both fail to prepare", &fakeEngine{prepareErr: ErrEngineUnavailable}, &fakeEngine{prepareErr: ErrEngineUnavailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, tt.primary, tt.fallback)
			rec := newRecorder()

			onStart, onEnd := rec.callbacks("hello")
			u := a.Speak("hello", onStart, onEnd)
			rec.wait(t, "end:hello")

			if rec.count("start:hello") != 0 {
				t.Error("onStart must not fire without an engine")
			}
			if !errors.Is(u.Err(), ErrNoEngine) {
				t.Errorf("Err() = %v, want ErrNoEngine", u.Err())
			}
		})
	}
}

func TestAdapter_FallbackUnavailableAfterTimeout(t *testing.T) {
	primary := &fakeEngine{name: "local", silent: true}
	fallback := &fakeEngine{name: "remote", prepareErr: ErrEngineUnavailable}
	a := newTestAdapter(t, primary, fallback)
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("hello")
	a.Speak("hello", onStart, onEnd)
	rec.wait(t, "end:hello")

	if rec.count("start:hello") != 0 {
		t.Error("onStart must not fire")
	}
	if rec.count("end:hello") != 1 {
		t.Errorf("end fired %d times", rec.count("end:hello"))
	}
}

func TestAdapter_FallbackStillPreparingAfterTimeout(t *testing.T) {
	primary := &fakeEngine{name: "local", silent: true}
	fallback := &fakeEngine{name: "remote", prepareDelay: 300 * time.Millisecond}
	a := newTestAdapter(t, primary, fallback)
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("hello")
	a.Speak("hello", onStart, onEnd)
	rec.wait(t, "start:hello")

	if got := fallback.texts(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("fallback spoke %v", got)
	}
	if rec.count("end:hello") != 0 {
		t.Error("onEnd fired before playback finished")
	}
	if a.Engine() != Fallback {
		t.Errorf("engine = %v, want fallback", a.Engine())
	}
}

func TestAdapter_SpeakBeforeReady(t *testing.T) {
	primary := &fakeEngine{name: "local", prepareDelay: 30 * time.Millisecond}
	fallback := &fakeEngine{name: "remote", prepareDelay: time.Second}
	a := newTestAdapter(t, primary, fallback)
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("early")
	a.Speak("early", onStart, onEnd)
	rec.wait(t, "start:early")

	if got := primary.texts(); len(got) != 1 || got[0] != "early" {
		t.Errorf("primary spoke %v", got)
	}
}

func TestAdapter_PauseResume(t *testing.T) {
	primary := &fakeEngine{name: "local"}
	a := newTestAdapter(t, primary, nil)
	rec := newRecorder()

	// Nothing playing: both are no-ops.
	a.Pause()
	a.Resume()
	if primary.paused != 0 || primary.resumed != 0 {
		t.Fatal("pause/resume should do nothing while idle")
	}

	onStart, onEnd := rec.callbacks("hello")
	u := a.Speak("hello", onStart, onEnd)
	rec.wait(t, "start:hello")

	a.Resume()
	if primary.resumed != 0 {
		t.Error("resume should do nothing while playing")
	}

	a.Pause()
	if u.State() != UtterancePaused || !a.State().Paused {
		t.Errorf("state after pause = %v", u.State())
	}
	a.Pause()

	a.Resume()
	if u.State() != UtterancePlaying || !a.State().Playing {
		t.Errorf("state after resume = %v", u.State())
	}

	primary.mu.Lock()
	defer primary.mu.Unlock()
	if primary.paused != 1 || primary.resumed != 1 {
		t.Errorf("paused=%d resumed=%d, want 1 and 1", primary.paused, primary.resumed)
	}
}

func TestAdapter_StopFiresEndOnce(t *testing.T) {
	primary := &fakeEngine{name: "local"}
	a := newTestAdapter(t, primary, nil)
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("hello")
	a.Speak("hello", onStart, onEnd)
	rec.wait(t, "start:hello")

	a.Stop()
	rec.wait(t, "end:hello")
	a.Stop()
	primary.finish()
	time.Sleep(20 * time.Millisecond)

	if n := rec.count("end:hello"); n != 1 {
		t.Errorf("end fired %d times", n)
	}
}

func TestAdapter_Close(t *testing.T) {
	primary := &fakeEngine{name: "local"}
	fallback := &fakeEngine{name: "remote"}
	a := New(primary, fallback, WithProbeTimeout(50*time.Millisecond))
	a.Init(context.Background())
	rec := newRecorder()

	onStart, onEnd := rec.callbacks("hello")
	a.Speak("hello", onStart, onEnd)
	rec.wait(t, "start:hello")

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	rec.wait(t, "end:hello")
	if !primary.closed || !fallback.closed {
		t.Error("engines were not closed")
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	var ended atomic.Bool
	u := a.Speak("late", nil, func() { ended.Store(true) })
	if !ended.Load() || !errors.Is(u.Err(), ErrClosed) {
		t.Errorf("Speak after Close should end immediately, err=%v", u.Err())
	}
}

func TestAdapter_EmptyText(t *testing.T) {
	a := newTestAdapter(t, &fakeEngine{name: "local"}, nil)

	var started, ended atomic.Int32
	u := a.Speak("   ", func() { started.Add(1) }, func() { ended.Add(1) })
	if !errors.Is(u.Err(), ErrEmptyText) {
		t.Errorf("Err() = %v, want ErrEmptyText", u.Err())
	}
	if started.Load() != 0 || ended.Load() != 1 {
		t.Errorf("started=%d ended=%d", started.Load(), ended.Load())
	}
}
