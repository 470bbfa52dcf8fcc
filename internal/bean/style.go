package bean

import (
	"fmt"

	"github.com/dmitrijs2005/beanfeed/internal/common"
)

// Style is the verbosity of a serialized record. Styles are ordered:
// every field written at a lower style is also written at a higher one.
// A style is chosen per request and never stored.
type Style int

const (
	Plain Style = iota
	Short
	Long
	Full
)

var styleNames = [...]string{
	Plain: "plain",
	Short: "short",
	Long:  "long",
	Full:  "full",
}

func (s Style) String() string {
	if s < Plain || s > Full {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// Includes reports whether fields introduced at level are written at s.
func (s Style) Includes(level Style) bool {
	return s >= level
}

// ParseStyle parses the value of the style query parameter. Matching is
// case-sensitive and an empty value means Plain.
func ParseStyle(v string) (Style, error) {
	if v == "" {
		return Plain, nil
	}
	for s, name := range styleNames {
		if name == v {
			return Style(s), nil
		}
	}
	return Plain, fmt.Errorf("%w: unknown style %q", common.ErrMalformedRequest, v)
}
