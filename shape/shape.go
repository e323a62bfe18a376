// Package shape converts parsed elements into flat table records.
//
// For each element the Shaper emits exactly one node or way record, the
// ordered way node records of a way, and one tag record for each tag.
// Tags with a "postcode" key are filtered by the regional prefix and
// dropped if they do not match. Tags with a "street" key are normalized.
// All other tags are passed unchanged. Tag order follows the document,
// repeated tags are kept.
package shape

import (
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/normalize"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
)

const (
	NodeAttrs = element.AttrID | element.AttrLat | element.AttrLon | metaAttrs
	WayAttrs  = element.AttrID | metaAttrs

	metaAttrs = element.AttrUser | element.AttrUID | element.AttrVersion |
		element.AttrChangeset | element.AttrTimestamp
)

const (
	postcodeKey = "postcode"
	streetKey   = "street"
)

type Shaper struct {
	street   *normalize.Street
	postcode *normalize.Postcode
	policy   rules.KeyPolicy
}

// New creates a Shaper. cacheSize is passed to normalize.NewStreet.
func New(r *rules.Rules, cacheSize int) (*Shaper, error) {
	postcode, err := normalize.NewPostcode(r.Postcode.Prefix, r.Postcode.Width)
	if err != nil {
		return nil, err
	}
	return &Shaper{
		street:   normalize.NewStreet(r.Street, cacheSize),
		postcode: postcode,
		policy:   r.Keys.ProblemPolicy,
	}, nil
}

// Shape returns all records of e. It returns a *MissingAttributeError if
// e lacks a required attribute and ErrNotShaped for relations.
//
// The returned records do not reference e, e can be reused afterwards.
func (s *Shaper) Shape(e element.Element) (Records, error) {
	switch e := e.(type) {
	case *element.Node:
		return s.shapeNode(e)
	case *element.Way:
		return s.shapeWay(e)
	}
	return Records{}, ErrNotShaped
}

func (s *Shaper) shapeNode(n *element.Node) (Records, error) {
	if missing := n.Attrs.Missing(NodeAttrs); missing != 0 {
		return Records{}, &MissingAttributeError{Kind: element.NODE, ID: n.ID, Attrs: missing.Names()}
	}
	md := n.Metadata
	r := Records{
		Kind: element.NODE,
		Node: &NodeRecord{
			ID:        n.ID,
			Lat:       n.Lat,
			Lon:       n.Lon,
			User:      md.User,
			UID:       md.UID,
			Version:   md.Version,
			Changeset: md.Changeset,
			Timestamp: md.Timestamp,
		},
	}
	r.Tags, r.Outcome = s.shapeTags(n.ID, n.Tags)
	return r, nil
}

func (s *Shaper) shapeWay(w *element.Way) (Records, error) {
	if missing := w.Attrs.Missing(WayAttrs); missing != 0 || w.BadRefs > 0 {
		attrs := missing.Names()
		if w.BadRefs > 0 {
			attrs = append(attrs, "ref")
		}
		return Records{}, &MissingAttributeError{Kind: element.WAY, ID: w.ID, Attrs: attrs}
	}
	md := w.Metadata
	r := Records{
		Kind: element.WAY,
		Way: &WayRecord{
			ID:        w.ID,
			User:      md.User,
			UID:       md.UID,
			Version:   md.Version,
			Changeset: md.Changeset,
			Timestamp: md.Timestamp,
		},
	}
	if len(w.Refs) > 0 {
		r.WayNodes = make([]WayNodeRecord, len(w.Refs))
		for i, ref := range w.Refs {
			r.WayNodes[i] = WayNodeRecord{WayID: w.ID, NodeID: ref, Position: i}
		}
	}
	r.Tags, r.Outcome = s.shapeTags(w.ID, w.Tags)
	return r, nil
}

func (s *Shaper) shapeTags(owner int64, tags element.Tags) ([]TagRecord, Outcome) {
	var out Outcome
	if len(tags) == 0 {
		return nil, out
	}
	records := make([]TagRecord, 0, len(tags))
	for _, tag := range tags {
		if tag.Key == "" {
			out.EmptyKeys++
			continue
		}
		if normalize.IsProblematic(tag.Key) {
			out.ProblemKeys++
			if s.policy == rules.DropKeys {
				out.DroppedKeys++
				continue
			}
		}
		key := normalize.SplitKey(tag.Key)
		value := tag.Value
		switch key.Local {
		case postcodeKey:
			code, ok := s.postcode.Normalize(value)
			if !ok {
				out.RejectedPostcodes++
				continue
			}
			value = code
		case streetKey:
			value = s.street.Normalize(value)
			if value != tag.Value {
				out.RewrittenStreets++
			}
		}
		records = append(records, TagRecord{
			OwnerID: owner,
			Key:     key.Local,
			Value:   value,
			Type:    key.Namespace,
		})
	}
	return records, out
}
