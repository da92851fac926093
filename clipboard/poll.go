package clipboard

import (
	"errors"
	"log/slog"
	"time"
)

// FormatReader gives access to one clipboard format. The clipboard is a
// system-wide exclusive resource: Open may fail while another process holds it.
type FormatReader interface {
	Open() error
	Close() error
	// Available reports whether the format is on the clipboard. An error
	// means the answer is unknown (e.g. delayed rendering).
	Available() (bool, error)
	Read() ([]byte, error)
}

var errEmptyData = errors.New("clipboard data is empty")

// Poll repeatedly opens the clipboard and reads the format until data is
// read, the format is definitively unavailable, or wait elapses. It returns
// nil for every non-success outcome.
func Poll(r FormatReader, wait, interval time.Duration) []byte {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	deadline := time.Now().Add(wait)

	var lastErr error
	for time.Now().Before(deadline) {
		data, done, err := pollOnce(r)
		if done {
			return data
		}
		if err != nil {
			lastErr = err
		}

		if remaining := time.Until(deadline); remaining < interval {
			if remaining <= 0 {
				break
			}
			time.Sleep(remaining)
			continue
		}
		time.Sleep(interval)
	}

	if lastErr != nil {
		slog.Warn("Clipboard read timed out", "wait", wait, "error", lastErr)
	}
	return nil
}

// pollOnce performs a single acquire/check/read cycle. done is true when
// the poll must stop, with data nil if the format is unavailable.
func pollOnce(r FormatReader) (data []byte, done bool, err error) {
	if err := r.Open(); err != nil {
		return nil, false, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			slog.Debug("Failed to close clipboard", "error", cerr)
		}
	}()

	available, err := r.Available()
	if err != nil {
		return nil, false, err
	}
	if !available {
		return nil, true, nil
	}

	data, err = r.Read()
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, errEmptyData
	}
	return data, true, nil
}
