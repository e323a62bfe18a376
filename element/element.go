package element

import (
	"fmt"
	"strings"
)

type Kind int

const (
	NODE Kind = iota
	WAY
	RELATION
)

var KindValues = map[string]Kind{
	"node":     NODE,
	"way":      WAY,
	"relation": RELATION,
}

func (k Kind) String() string {
	switch k {
	case NODE:
		return "node"
	case WAY:
		return "way"
	case RELATION:
		return "relation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds is a set of element kinds.
type Kinds uint8

const AllKinds = Kinds(1<<NODE | 1<<WAY | 1<<RELATION)

func KindsOf(kinds ...Kind) Kinds {
	var ks Kinds
	for _, k := range kinds {
		ks |= 1 << k
	}
	return ks
}

// ParseKinds parses a comma separated list like "node,way".
func ParseKinds(s string) (Kinds, error) {
	var ks Kinds
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, ok := KindValues[part]
		if !ok {
			return 0, fmt.Errorf("unknown element kind '%s'", part)
		}
		ks |= 1 << k
	}
	if ks == 0 {
		return 0, fmt.Errorf("no element kinds in '%s'", s)
	}
	return ks, nil
}

func (ks Kinds) Has(k Kind) bool {
	return ks&(1<<k) != 0
}

func (ks Kinds) String() string {
	var names []string
	for _, k := range []Kind{NODE, WAY, RELATION} {
		if ks.Has(k) {
			names = append(names, k.String())
		}
	}
	return strings.Join(names, ",")
}

// Attr is a set of element attributes. The parsers mark every attribute
// that was present and well formed in the source.
type Attr uint16

const (
	AttrID Attr = 1 << iota
	AttrLat
	AttrLon
	AttrUser
	AttrUID
	AttrVersion
	AttrChangeset
	AttrTimestamp
)

var attrNames = []struct {
	attr Attr
	name string
}{
	{AttrID, "id"},
	{AttrLat, "lat"},
	{AttrLon, "lon"},
	{AttrUser, "user"},
	{AttrUID, "uid"},
	{AttrVersion, "version"},
	{AttrChangeset, "changeset"},
	{AttrTimestamp, "timestamp"},
}

func (a Attr) Has(b Attr) bool {
	return a&b == b
}

// Missing returns all attributes of required that are not in a.
func (a Attr) Missing(required Attr) Attr {
	return required &^ a
}

// Names returns the XML names of all attributes in a, in document
// attribute order (id, lat, lon, user, uid, version, changeset, timestamp).
func (a Attr) Names() []string {
	var names []string
	for _, n := range attrNames {
		if a&n.attr != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

func (a Attr) String() string {
	return strings.Join(a.Names(), ",")
}

type Tag struct {
	Key   string
	Value string
}

// Tags keeps the tags of an element in document order. Repeated keys
// are kept.
type Tags []Tag

func (t Tags) String() string {
	parts := make([]string, len(t))
	for i, tag := range t {
		parts[i] = tag.Key + "=" + tag.Value
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Metadata contains the editing information of an element. All values
// are kept as they appear in the source.
type Metadata struct {
	User      string
	UID       string
	Version   string
	Changeset string
	Timestamp string
}

type OSMElem struct {
	ID       int64
	Attrs    Attr
	Metadata Metadata
	Tags     Tags
}

func (e *OSMElem) reset() {
	e.ID = 0
	e.Attrs = 0
	e.Metadata = Metadata{}
	e.Tags = e.Tags[:0]
}

// Element is one of *Node, *Way or *Relation.
type Element interface {
	Kind() Kind
	Base() *OSMElem
}

type Node struct {
	OSMElem
	// Lat and Lon are not validated or converted.
	Lat string
	Lon string
}

func (n *Node) Kind() Kind { return NODE }

func (n *Node) Base() *OSMElem { return &n.OSMElem }

func (n *Node) String() string { return fmt.Sprintf("node %d", n.ID) }

// Reset clears n but keeps allocated buffers.
func (n *Node) Reset() {
	n.OSMElem.reset()
	n.Lat = ""
	n.Lon = ""
}

type Way struct {
	OSMElem
	// Refs is the ordered list of all node IDs that define this way.
	Refs []int64
	// BadRefs counts nd children without a valid ref attribute.
	BadRefs int
}

// Reset clears w but keeps allocated buffers.
func (w *Way) Reset() {
	w.OSMElem.reset()
	w.Refs = w.Refs[:0]
	w.BadRefs = 0
}

func (w *Way) Kind() Kind { return WAY }

func (w *Way) Base() *OSMElem { return &w.OSMElem }

func (w *Way) String() string { return fmt.Sprintf("way %d", w.ID) }

type Member struct {
	ID   int64
	Type Kind
	Role string
}

type Relation struct {
	OSMElem
	Members []Member
}

func (r *Relation) Kind() Kind { return RELATION }

func (r *Relation) Base() *OSMElem { return &r.OSMElem }

func (r *Relation) String() string { return fmt.Sprintf("relation %d", r.ID) }

// Reset clears r but keeps allocated buffers.
func (r *Relation) Reset() {
	r.OSMElem.reset()
	r.Members = r.Members[:0]
}
