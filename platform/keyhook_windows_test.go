package platform

import "testing"

func TestKeyboardHookClaim(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		gen     int
		claim   int
		want    bool
	}{
		{"current thread", true, 1, 1, true},
		// stopped after generation 1 started, restarted as generation 3
		{"superseded thread", true, 3, 1, false},
		{"stopped hook", false, 2, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &keyboardHook{handlers: make(map[int]keyHandler), running: tt.running, gen: tt.gen}
			if got := h.claim(tt.claim, 100); got != tt.want {
				t.Errorf("claim(%d) = %v, want %v", tt.claim, got, tt.want)
			}
			want := uint32(0)
			if tt.want {
				want = 100
			}
			if h.threadID != want {
				t.Errorf("threadID = %d, want %d", h.threadID, want)
			}
		})
	}
}
