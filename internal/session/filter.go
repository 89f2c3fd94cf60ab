package session

import "strings"

// Default process lists: browsers and music players are controllable,
// chat and game launchers never are.
var (
	DefaultAllow = []string{
		"chrome.exe", "firefox.exe", "msedge.exe", "opera.exe", "brave.exe", "safari.exe",
		"spotify.exe", "music.ui.exe", "amazonmusic.exe", "tidal.exe", "deezer.exe", "iTunes.exe", "vlc.exe",
	}
	DefaultDeny = []string{
		"discord.exe", "steam.exe", "steamwebhelper.exe",
	}
)

// idleProcess is the pseudo-process that owns system sounds.
const idleProcess = "system"

// normalizeName lower-cases a process name and drops a trailing ".exe" so
// that Windows and Linux names for the same program compare equal.
func normalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

// Filter decides which processes are eligible for control.
type Filter struct {
	allow map[string]struct{}
	deny  map[string]struct{}
}

// NewFilter builds a Filter from allow and deny process names.
func NewFilter(allow, deny []string) *Filter {
	f := &Filter{
		allow: make(map[string]struct{}, len(allow)),
		deny:  make(map[string]struct{}, len(deny)),
	}
	for _, name := range allow {
		f.allow[normalizeName(name)] = struct{}{}
	}
	for _, name := range deny {
		f.deny[normalizeName(name)] = struct{}{}
	}
	return f
}

// DefaultFilter returns a Filter over DefaultAllow and DefaultDeny.
func DefaultFilter() *Filter {
	return NewFilter(DefaultAllow, DefaultDeny)
}

// Allowed reports whether sessions of the named process may be controlled.
// Unnamed sessions and the idle pseudo-process are never allowed; the deny
// list wins over the allow list.
func (f *Filter) Allowed(processName string) bool {
	name := normalizeName(processName)
	if name == "" || name == idleProcess {
		return false
	}
	if _, denied := f.deny[name]; denied {
		return false
	}
	_, allowed := f.allow[name]
	return allowed
}
