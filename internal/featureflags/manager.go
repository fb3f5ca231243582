// Package featureflags evaluates on/off and percentage rollout flags.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Flags read by the application.
const (
	// RealtimeMessages gates the websocket endpoint and live message delivery.
	RealtimeMessages = "realtime_messages"
	// PostCache gates read-through caching of post lookups by slug.
	PostCache = "post_cache"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "realtime_messages=on,post_cache=25%,other=off"
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated flag list. Malformed entries are skipped.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID. Values are on/true/1,
// off/false/0 or N% (a stable per-user bucket; guests are never in a partial rollout).
// Unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Global reports whether name is fully on, independent of any user.
func (m *Manager) Global(name string) bool {
	if m == nil {
		return false
	}
	switch m.flags[normalize(name)] {
	case "on", "true", "1", "100%":
		return true
	}
	return false
}

// Raw returns a copy of the configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot evaluates every configured flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
