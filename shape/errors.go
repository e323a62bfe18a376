package shape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
)

// ErrNotShaped is returned for relations.
var ErrNotShaped = errors.New("element kind is not exported")

// MissingAttributeError reports required attributes that are absent or
// not parseable.
type MissingAttributeError struct {
	Kind  element.Kind
	ID    int64
	Attrs []string
}

func (e *MissingAttributeError) Error() string {
	attrs := strings.Join(e.Attrs, ", ")
	if len(e.Attrs) > 0 && e.Attrs[0] == "id" {
		return fmt.Sprintf("%s without id: missing attribute %s", e.Kind, attrs)
	}
	return fmt.Sprintf("%s %d: missing attribute %s", e.Kind, e.ID, attrs)
}
