// Package debug holds the process-wide admin override. It is a documented
// debug backdoor carried over from the original product, not a security
// boundary: the unlock code is a hardcoded sentinel submitted through the
// bug-report form.
package debug

import "sync/atomic"

// UnlockCode is the literal bug-report text that flips admin mode on.
const UnlockCode = "22112012L@@#"

// AdminBalance is the coin balance admin mode pins wallets to.
const AdminBalance = 9999

// Mode is the admin flag. The zero value is disabled.
type Mode struct {
	enabled atomic.Bool
}

// Enabled reports whether admin mode is active.
func (m *Mode) Enabled() bool { return m.enabled.Load() }

// Activate turns admin mode on. It is never turned off without a restart.
func (m *Mode) Activate() { m.enabled.Store(true) }

// TryUnlock activates admin mode when text is the sentinel, reporting whether
// it matched. Callers must not store the sentinel as a regular report.
func (m *Mode) TryUnlock(text string) bool {
	if text != UnlockCode {
		return false
	}
	m.Activate()
	return true
}
