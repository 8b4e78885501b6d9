package bridge

import "strings"

// OriginGate is the per-channel allow-list check gating all inbound
// processing. Rejections are silent toward the remote.
type OriginGate struct {
	allowed  map[string]struct{}
	wildcard bool
}

// NewOriginGate builds a gate from configured origins. The literal "*"
// permits any origin and should only appear in test configurations.
func NewOriginGate(origins []string) *OriginGate {
	g := &OriginGate{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		normalized := normalizeOrigin(origin)
		if normalized == "" {
			continue
		}
		if normalized == "*" {
			g.wildcard = true
			continue
		}
		g.allowed[normalized] = struct{}{}
	}
	return g
}

// Allow reports whether origin may be processed. An empty origin is never
// allowed.
func (g *OriginGate) Allow(origin string) bool {
	normalized := normalizeOrigin(origin)
	if normalized == "" {
		return false
	}
	if g.wildcard {
		return true
	}
	_, ok := g.allowed[normalized]
	return ok
}

// normalizeOrigin lowercases and strips a trailing slash so configured and
// reported origins compare by scheme://host[:port] value.
func normalizeOrigin(origin string) string {
	normalized := strings.ToLower(strings.TrimSpace(origin))
	return strings.TrimSuffix(normalized, "/")
}
