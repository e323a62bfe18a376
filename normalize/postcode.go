package normalize

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Postcode filters postal codes by a regional prefix.
//
// The filter is deliberately permissive: it only anchors on the prefix
// and cuts a fixed number of characters. It does not check for digits.
type Postcode struct {
	prefix string
	width  int
}

func NewPostcode(prefix string, width int) (*Postcode, error) {
	if prefix == "" {
		return nil, errors.New("empty postcode prefix")
	}
	if width < utf8.RuneCountInString(prefix) {
		return nil, errors.New("postcode width shorter than prefix")
	}
	return &Postcode{prefix: prefix, width: width}, nil
}

// Normalize returns width characters starting at the first occurrence of
// the prefix. ok is false if raw does not contain the prefix; the tag
// should be dropped then. Shorter remainders are returned as they are.
func (p *Postcode) Normalize(raw string) (code string, ok bool) {
	i := strings.Index(raw, p.prefix)
	if i == -1 {
		return "", false
	}
	rest := raw[i:]
	n := 0
	for j := range rest {
		if n == p.width {
			return rest[:j], true
		}
		n++
	}
	return rest, true
}
