package debug

import "testing"

func TestMode_TryUnlock(t *testing.T) {
	var m Mode
	if m.Enabled() {
		t.Error("zero value must be disabled")
	}
	if m.TryUnlock("not the code") {
		t.Error("arbitrary text must not unlock")
	}
	if m.Enabled() {
		t.Error("failed unlock flipped the flag")
	}
	if !m.TryUnlock(UnlockCode) {
		t.Error("sentinel must unlock")
	}
	if !m.Enabled() {
		t.Error("mode not active after unlock")
	}
	// Unlocking is one-way for the process lifetime.
	m.TryUnlock("something else")
	if !m.Enabled() {
		t.Error("mode turned off by a later submission")
	}
}
