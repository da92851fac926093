package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrAlreadyRecording = errors.New("hotkey recording already in progress")
	ErrNoKeyDetected    = errors.New("no key detected")
	ErrCancelled        = errors.New("hotkey recording cancelled")
)

// Listener is the OS input primitive the recorder owns while a session runs.
// handle is invoked on the listener's own goroutine. Stop must be safe to call
// when not started and from inside handle.
type Listener interface {
	Start(handle func(ev KeyEvent, pressed bool)) error
	Stop() error
}

// Result is the terminal outcome of a recording session
type Result struct {
	Combo Combination
	Err   error
}

// Session delivers progress updates and exactly one terminal Result
type Session struct {
	updates chan string
	done    chan Result
	once    sync.Once
}

func newSession() *Session {
	return &Session{
		updates: make(chan string, 16),
		done:    make(chan Result, 1),
	}
}

// Updates streams display strings ("Ctrl + Alt + A") while keys are pressed.
// Slow readers may miss intermediate updates. Closed when the session ends.
func (s *Session) Updates() <-chan string {
	return s.updates
}

// Done yields the single terminal Result and is then closed
func (s *Session) Done() <-chan Result {
	return s.done
}

// Wait blocks until the session finishes or ctx is done
func (s *Session) Wait(ctx context.Context) (Combination, error) {
	select {
	case res := <-s.done:
		return res.Combo, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) update(display string) {
	select {
	case s.updates <- display:
	default:
	}
}

func (s *Session) finish(res Result) {
	s.once.Do(func() {
		s.done <- res
		close(s.done)
		close(s.updates)
	})
}

// Recorder turns a live key press/release stream into one hotkey combination.
// A session completes once every key pressed during it has been released, so
// chords can be pressed and released in any order.
type Recorder struct {
	listener Listener

	mu       sync.Mutex
	session  *Session
	pressed  map[string]bool
	released map[string]bool
	ever     map[string]bool
}

// NewRecorder creates a recorder driven by the given listener
func NewRecorder(l Listener) *Recorder {
	return &Recorder{
		listener: l,
		pressed:  make(map[string]bool),
		released: make(map[string]bool),
		ever:     make(map[string]bool),
	}
}

// Recording reports whether a session is active
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// Start begins a recording session. If one is already active it is left
// untouched and returned together with ErrAlreadyRecording.
func (r *Recorder) Start() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return r.session, ErrAlreadyRecording
	}

	r.reset()
	s := newSession()
	r.session = s

	if err := r.listener.Start(r.handle); err != nil {
		r.session = nil
		return nil, fmt.Errorf("failed to start key listener: %w", err)
	}

	slog.Info("Hotkey recording started")
	return s, nil
}

// StartWithCallbacks runs a session and reports through callbacks.
// onFinish is called exactly once with the persisted combo or an error.
// Panics inside callbacks are recovered and logged. It is a no-op while
// another session is active.
func (r *Recorder) StartWithCallbacks(onUpdate func(display string), onFinish func(combo string, err error)) error {
	s, err := r.Start()
	if errors.Is(err, ErrAlreadyRecording) {
		return nil
	}
	if err != nil {
		return err
	}

	go func() {
		for display := range s.Updates() {
			if onUpdate != nil {
				safeCall("update", func() { onUpdate(display) })
			}
		}

		res := <-s.Done()
		if onFinish == nil {
			return
		}
		if res.Err != nil {
			safeCall("finish", func() { onFinish("", res.Err) })
			return
		}
		safeCall("finish", func() { onFinish(res.Combo.String(), nil) })
	}()

	return nil
}

// Stop halts the listener and ends any active session. Safe when idle.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		if err := r.listener.Stop(); err != nil {
			slog.Warn("Failed to stop key listener", "error", err)
		}
		return
	}

	err := ErrCancelled
	if len(r.ever) == 0 {
		err = ErrNoKeyDetected
	}
	r.finishLocked(Result{Err: err})
}

func (r *Recorder) handle(ev KeyEvent, pressed bool) {
	tok, ok := Normalize(ev)
	if !ok {
		slog.Debug("Ignoring unrecognized key", "name", ev.Name, "vk", ev.VK, "char", ev.Char)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return
	}

	if pressed {
		r.pressed[tok] = true
		r.ever[tok] = true
		r.session.update(r.everCombo().Display())
		return
	}

	delete(r.pressed, tok)
	// Keys held down before the session started never count
	if !r.ever[tok] {
		return
	}
	r.released[tok] = true

	if len(r.ever) > 0 && len(r.released) == len(r.ever) {
		combo := r.everCombo()
		if err := Validate(combo); err != nil {
			slog.Info("Recorded hotkey rejected", "combo", combo.String(), "reason", err)
			r.finishLocked(Result{Err: err})
			return
		}
		slog.Info("Hotkey recorded", "combo", combo.String())
		r.finishLocked(Result{Combo: combo})
	}
}

// finishLocked releases the listener and delivers the terminal result
func (r *Recorder) finishLocked(res Result) {
	if err := r.listener.Stop(); err != nil {
		slog.Warn("Failed to stop key listener", "error", err)
	}
	s := r.session
	r.session = nil
	r.reset()
	s.finish(res)
	slog.Info("Hotkey recording stopped")
}

func (r *Recorder) reset() {
	clear(r.pressed)
	clear(r.released)
	clear(r.ever)
}

func (r *Recorder) everCombo() Combination {
	keys := make([]string, 0, len(r.ever))
	for k := range r.ever {
		keys = append(keys, k)
	}
	return NewCombination(keys)
}

func safeCall(name string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Hotkey recorder callback panicked", "callback", name, "panic", p)
		}
	}()
	fn()
}
