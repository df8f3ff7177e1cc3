package cache

// ScopedKeyer wraps a Keyer with a prefix so several boards (for example
// one per Jira site) can share one store without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "acme:")
//	keyer.ResponseKey("https://board/?format=json")
//	// "acme:response:https://board/?format=json"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResponseKey generates a prefixed key for a rendered response.
func (k *ScopedKeyer) ResponseKey(normalizedURL string) string {
	return k.prefix + k.inner.ResponseKey(normalizedURL)
}
