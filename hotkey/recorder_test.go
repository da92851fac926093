package hotkey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeListener struct {
	mu       sync.Mutex
	handle   func(KeyEvent, bool)
	starts   int
	stops    int
	startErr error
}

func (f *fakeListener) Start(handle func(KeyEvent, bool)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.handle = handle
	f.starts++
	return nil
}

func (f *fakeListener) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeListener) send(name string, pressed bool) {
	f.mu.Lock()
	h := f.handle
	f.mu.Unlock()
	h(KeyEvent{Name: name}, pressed)
}

func (f *fakeListener) press(names ...string) {
	for _, n := range names {
		f.send(n, true)
	}
}

func (f *fakeListener) release(names ...string) {
	for _, n := range names {
		f.send(n, false)
	}
}

func (f *fakeListener) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func permutations(keys []string) [][]string {
	if len(keys) <= 1 {
		return [][]string{append([]string(nil), keys...)}
	}
	var out [][]string
	for i := range keys {
		rest := make([]string, 0, len(keys)-1)
		rest = append(rest, keys[:i]...)
		rest = append(rest, keys[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{keys[i]}, p...))
		}
	}
	return out
}

func assertNotDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case res := <-s.Done():
		t.Fatalf("session finished early with %+v", res)
	default:
	}
}

func TestRecorderChordAnyOrder(t *testing.T) {
	keys := []string{"ctrl", "alt", "a"}

	for _, pressOrder := range permutations(keys) {
		for _, releaseOrder := range permutations(keys) {
			l := &fakeListener{}
			r := NewRecorder(l)

			s, err := r.Start()
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			l.press(pressOrder...)
			l.release(releaseOrder[:2]...)
			assertNotDone(t, s)

			l.release(releaseOrder[2])

			res, ok := <-s.Done()
			if !ok {
				t.Fatal("Done() closed without a result")
			}
			if res.Err != nil {
				t.Fatalf("press %v release %v: error = %v", pressOrder, releaseOrder, res.Err)
			}
			if got := res.Combo.String(); got != "<ctrl>+<alt>+a" {
				t.Errorf("press %v release %v: combo = %q", pressOrder, releaseOrder, got)
			}
			if _, ok := <-s.Done(); ok {
				t.Error("Done() delivered a second result")
			}
			if r.Recording() {
				t.Error("recorder still active after finish")
			}
			if _, stops := l.counts(); stops != 1 {
				t.Errorf("listener stopped %d times, want 1", stops)
			}
		}
	}
}

func TestRecorderModifiersReleasedWhileKeyHeld(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()

	l.press("ctrl", "alt", "a")
	l.release("ctrl", "alt")
	assertNotDone(t, s)

	if !r.Recording() {
		t.Fatal("recording stopped while a key is still held")
	}
	r.Stop()

	res := <-s.Done()
	if !errors.Is(res.Err, ErrCancelled) {
		t.Errorf("Stop() result = %v, want ErrCancelled", res.Err)
	}
}

func TestRecorderUpdates(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()

	l.press("alt", "ctrl", "a")

	want := []string{"Alt", "Ctrl + Alt", "Ctrl + Alt + A"}
	for _, w := range want {
		select {
		case got := <-s.Updates():
			if got != w {
				t.Errorf("update = %q, want %q", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for update %q", w)
		}
	}

	l.release("a", "alt", "ctrl")
	if _, ok := <-s.Updates(); ok {
		t.Error("Updates() not closed after finish")
	}
}

func TestRecorderValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want error
	}{
		{"no modifier", []string{"a"}, ErrNoModifier},
		{"modifier only", []string{"ctrl"}, ErrNoNormalKey},
		{"shift only", []string{"shift", "a"}, ErrShiftOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeListener{}
			r := NewRecorder(l)
			s, _ := r.Start()

			l.press(tt.keys...)
			l.release(tt.keys...)

			combo, err := s.Wait(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("Wait() error = %v, want %v", err, tt.want)
			}
			if combo != nil {
				t.Errorf("Wait() combo = %v, want nil", combo)
			}
			if _, stops := l.counts(); stops != 1 {
				t.Errorf("listener stopped %d times, want 1", stops)
			}
		})
	}
}

func TestRecorderReservedCombo(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()

	l.press("ctrl", "c")
	l.release("c", "ctrl")

	_, err := s.Wait(context.Background())
	var reserved *ReservedError
	if !errors.As(err, &reserved) || reserved.Combo != "ctrl+c" {
		t.Errorf("Wait() error = %v, want reserved ctrl+c", err)
	}
}

func TestRecorderStartIsIdempotent(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)

	first, err := r.Start()
	if err != nil {
		t.Fatal(err)
	}
	l.press("ctrl")

	second, err := r.Start()
	if !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRecording", err)
	}
	if second != first {
		t.Error("second Start() returned a different session")
	}
	if starts, _ := l.counts(); starts != 1 {
		t.Errorf("listener started %d times, want 1", starts)
	}

	// state from the first session survives
	l.press("b")
	l.release("ctrl", "b")
	combo, err := first.Wait(context.Background())
	if err != nil || combo.String() != "<ctrl>+b" {
		t.Errorf("Wait() = (%v, %v), want <ctrl>+b", combo, err)
	}
}

func TestRecorderStopWithoutKeys(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()

	r.Stop()

	_, err := s.Wait(context.Background())
	if !errors.Is(err, ErrNoKeyDetected) {
		t.Errorf("Wait() error = %v, want ErrNoKeyDetected", err)
	}

	// idle stop is safe and still releases the listener
	r.Stop()
	if _, stops := l.counts(); stops != 2 {
		t.Errorf("listener stopped %d times, want 2", stops)
	}
}

func TestRecorderIgnoresEventsAfterStop(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()
	r.Stop()
	<-s.Done()

	l.press("ctrl", "a")
	l.release("ctrl", "a")

	if r.Recording() {
		t.Error("events after Stop() revived the session")
	}
}

func TestRecorderIgnoresReleaseOfKeyHeldBeforeStart(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()

	l.release("shift")
	l.press("ctrl", "k")
	l.release("ctrl", "k")

	combo, err := s.Wait(context.Background())
	if err != nil || combo.String() != "<ctrl>+k" {
		t.Errorf("Wait() = (%v, %v), want <ctrl>+k", combo, err)
	}
}

func TestRecorderUnrecognizedKeysDoNotAbort(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)
	s, _ := r.Start()

	l.handle(KeyEvent{Char: 0x02}, true)
	l.press("ctrl", "q")
	l.handle(KeyEvent{}, false)
	l.release("q", "ctrl")

	combo, err := s.Wait(context.Background())
	if err != nil || combo.String() != "<ctrl>+q" {
		t.Errorf("Wait() = (%v, %v), want <ctrl>+q", combo, err)
	}
}

func TestRecorderStartError(t *testing.T) {
	l := &fakeListener{startErr: errors.New("hook refused")}
	r := NewRecorder(l)

	if _, err := r.Start(); err == nil {
		t.Fatal("Start() error = nil, want failure")
	}
	if r.Recording() {
		t.Error("recorder active after failed start")
	}
}

func TestStartWithCallbacks(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)

	type finish struct {
		combo string
		err   error
	}
	finished := make(chan finish, 2)
	var mu sync.Mutex
	var updates []string

	err := r.StartWithCallbacks(
		func(display string) {
			mu.Lock()
			updates = append(updates, display)
			mu.Unlock()
			panic("update callback exploded")
		},
		func(combo string, err error) {
			finished <- finish{combo, err}
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	// no-op while recording
	if err := r.StartWithCallbacks(nil, nil); err != nil {
		t.Fatalf("second StartWithCallbacks() error = %v", err)
	}

	l.press("ctrl", "shift", "f5")
	l.release("f5", "shift", "ctrl")

	select {
	case f := <-finished:
		if f.err != nil || f.combo != "<ctrl>+<shift>+<f5>" {
			t.Errorf("onFinish(%q, %v), want <ctrl>+<shift>+<f5>", f.combo, f.err)
		}
	case <-time.After(time.Second):
		t.Fatal("onFinish not called")
	}

	select {
	case f := <-finished:
		t.Errorf("onFinish called twice, second = %+v", f)
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Error("onUpdate never called")
	}
}

func TestStartWithCallbacksError(t *testing.T) {
	l := &fakeListener{}
	r := NewRecorder(l)

	done := make(chan error, 1)
	if err := r.StartWithCallbacks(nil, func(combo string, err error) {
		if combo != "" {
			t.Errorf("combo = %q on failure", combo)
		}
		done <- err
	}); err != nil {
		t.Fatal(err)
	}

	l.press("shift", "x")
	l.release("x", "shift")

	select {
	case err := <-done:
		if !errors.Is(err, ErrShiftOnly) {
			t.Errorf("onFinish error = %v, want ErrShiftOnly", err)
		}
	case <-time.After(time.Second):
		t.Fatal("onFinish not called")
	}
}
