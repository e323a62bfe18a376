// Package osmxml is a stream based parser for OSM XML files (.osm).
//
// The Scanner returns one element at a time and only keeps the element
// that was returned last. Elements are reused: an element returned by
// Element is only valid until the next call to Next.
package osmxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
)

// ParseError is returned for documents that are not well-formed.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing XML at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errEmptyDocument = errors.New("no root element")

type Scanner struct {
	dec   *xml.Decoder
	kinds element.Kinds

	node element.Node
	way  element.Way
	rel  element.Relation

	// open is the element between its start and end tag, nil outside.
	open    element.Element
	current element.Element
	started bool
	err     error
	closer  io.Closer
}

// New returns a Scanner for all elements of kinds. Other elements are
// skipped.
func New(r io.Reader, kinds element.Kinds) *Scanner {
	return &Scanner{dec: NewDecoder(r), kinds: kinds}
}

// NewDecoder returns an xml.Decoder that also reads documents in
// non-UTF-8 encodings like ISO-8859-1.
func NewDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	return dec
}

// Open returns a Scanner for a file. See OpenFile for supported
// compressions.
func Open(path string, kinds element.Kinds) (*Scanner, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	s := New(f, kinds)
	s.closer = f
	return s, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// Next advances to the next element. It returns false at the end of the
// document or on the first error.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.current = nil
	for {
		token, err := s.dec.Token()
		if err == io.EOF {
			if !s.started {
				s.fail(errEmptyDocument)
			} else if s.open != nil {
				s.fail(io.ErrUnexpectedEOF)
			}
			return false
		}
		if err != nil {
			s.fail(err)
			return false
		}

		switch tok := token.(type) {
		case xml.StartElement:
			s.started = true
			if err := s.start(tok); err != nil {
				s.fail(err)
				return false
			}
		case xml.EndElement:
			if s.open == nil {
				continue
			}
			if tok.Name.Local == s.open.Kind().String() {
				s.current = s.open
				s.open = nil
				return true
			}
		}
	}
}

func (s *Scanner) start(tok xml.StartElement) error {
	name := tok.Name.Local
	if s.open == nil {
		kind, ok := element.KindValues[name]
		if !ok {
			// root, bounds, changesets, ...
			return nil
		}
		if !s.kinds.Has(kind) {
			return s.dec.Skip()
		}
		switch kind {
		case element.NODE:
			s.node.Reset()
			s.open = &s.node
			setNodeAttrs(tok.Attr, &s.node)
		case element.WAY:
			s.way.Reset()
			s.open = &s.way
			setElemAttrs(tok.Attr, &s.way.OSMElem)
		case element.RELATION:
			s.rel.Reset()
			s.open = &s.rel
			setElemAttrs(tok.Attr, &s.rel.OSMElem)
		}
		return nil
	}

	switch name {
	case "tag":
		var tag element.Tag
		for _, attr := range tok.Attr {
			switch attr.Name.Local {
			case "k":
				tag.Key = attr.Value
			case "v":
				tag.Value = attr.Value
			}
		}
		base := s.open.Base()
		base.Tags = append(base.Tags, tag)
	case "nd":
		if s.open != &s.way {
			return nil
		}
		ok := false
		for _, attr := range tok.Attr {
			if attr.Name.Local == "ref" {
				ref, err := strconv.ParseInt(attr.Value, 10, 64)
				if err == nil {
					s.way.Refs = append(s.way.Refs, ref)
					ok = true
				}
			}
		}
		if !ok {
			s.way.BadRefs++
		}
	case "member":
		if s.open != &s.rel {
			return nil
		}
		member := element.Member{}
		for _, attr := range tok.Attr {
			switch attr.Name.Local {
			case "type":
				var ok bool
				member.Type, ok = element.KindValues[attr.Value]
				if !ok {
					// ignore unknown member types
					return nil
				}
			case "role":
				member.Role = attr.Value
			case "ref":
				var err error
				member.ID, err = strconv.ParseInt(attr.Value, 10, 64)
				if err != nil {
					// ignore invalid ref
					return nil
				}
			}
		}
		s.rel.Members = append(s.rel.Members, member)
	}
	return nil
}

func setNodeAttrs(attrs []xml.Attr, node *element.Node) {
	setElemAttrs(attrs, &node.OSMElem)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "lat":
			node.Lat = attr.Value
			node.Attrs |= element.AttrLat
		case "lon":
			node.Lon = attr.Value
			node.Attrs |= element.AttrLon
		}
	}
}

func setElemAttrs(attrs []xml.Attr, elem *element.OSMElem) {
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "id":
			id, err := strconv.ParseInt(attr.Value, 10, 64)
			if err == nil {
				elem.ID = id
				elem.Attrs |= element.AttrID
			}
		case "user":
			elem.Metadata.User = attr.Value
			elem.Attrs |= element.AttrUser
		case "uid":
			elem.Metadata.UID = attr.Value
			elem.Attrs |= element.AttrUID
		case "version":
			elem.Metadata.Version = attr.Value
			elem.Attrs |= element.AttrVersion
		case "changeset":
			elem.Metadata.Changeset = attr.Value
			elem.Attrs |= element.AttrChangeset
		case "timestamp":
			elem.Metadata.Timestamp = attr.Value
			elem.Attrs |= element.AttrTimestamp
		}
	}
}

func (s *Scanner) fail(err error) {
	line, col := s.dec.InputPos()
	s.err = &ParseError{Line: line, Column: col, Err: err}
	s.open = nil
	s.current = nil
}

// Element returns the element found by the last call to Next.
func (s *Scanner) Element() element.Element {
	return s.current
}

// Err returns the first error, nil at the end of a well-formed document.
func (s *Scanner) Err() error {
	return s.err
}

// Close closes the underlying file for Scanners created with Open.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
