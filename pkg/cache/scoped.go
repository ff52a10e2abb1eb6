package cache

// ScopedKeyer wraps a Keyer with a prefix so unrelated projects can share one
// cache backend without colliding.
//
// Example usage:
//
//	// Keys for the "blog" site only
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "blog:")
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

// VariantKey generates a prefixed variant key.
func (k *ScopedKeyer) VariantKey(sourceHash string, width int, format string, quality int) string {
	return k.prefix + k.inner.VariantKey(sourceHash, width, format, quality)
}

// PlaceholderKey generates a prefixed placeholder key.
func (k *ScopedKeyer) PlaceholderKey(sourceHash string, size int, blur float64) string {
	return k.prefix + k.inner.PlaceholderKey(sourceHash, size, blur)
}
