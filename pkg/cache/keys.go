package cache

import (
	"fmt"
	"strconv"
)

// Keyer builds cache keys for the values the pipeline stores.
type Keyer interface {
	// VariantKey identifies one encoded variant of a source.
	VariantKey(sourceHash string, width int, format string, quality int) string

	// PlaceholderKey identifies the placeholder data URI of a source.
	PlaceholderKey(sourceHash string, size int, blur float64) string
}

// DefaultKeyer is the standard Keyer.
//
// Keys look like "variant:<hash>:800:jpg:q80" and
// "lqip:<hash>:30:b5". They are readable so a Redis backend can be inspected
// by hand.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// VariantKey implements Keyer.
func (DefaultKeyer) VariantKey(sourceHash string, width int, format string, quality int) string {
	return fmt.Sprintf("variant:%s:%d:%s:q%d", sourceHash, width, format, quality)
}

// PlaceholderKey implements Keyer.
func (DefaultKeyer) PlaceholderKey(sourceHash string, size int, blur float64) string {
	return fmt.Sprintf("lqip:%s:%d:b%s", sourceHash, size, strconv.FormatFloat(blur, 'g', -1, 64))
}

var _ Keyer = DefaultKeyer{}
