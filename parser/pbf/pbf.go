// Package pbf reads .osm.pbf files with the go-osm PBF parser and
// returns the elements one at a time, like the osmxml Scanner.
//
// PBF tags have no order. Tags are returned sorted by key.
package pbf

import (
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/omniscale/go-osm"
	"github.com/omniscale/go-osm/parser/pbf"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
)

type Scanner struct {
	kinds element.Kinds

	nodes     chan []osm.Node
	ways      chan []osm.Way
	relations chan []osm.Relation

	nodeBatch []osm.Node
	wayBatch  []osm.Way
	relBatch  []osm.Relation

	node element.Node
	way  element.Way
	rel  element.Relation

	current element.Element
	parsed  chan struct{}
	cancel  context.CancelFunc
	group   *errgroup.Group
	closer  io.Closer
	err     error
	done    bool
}

// New starts parsing r in the background. Only elements of kinds are
// returned.
func New(r io.Reader, kinds element.Kinds) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	s := &Scanner{
		kinds:  kinds,
		parsed: make(chan struct{}),
		cancel: cancel,
		group:  g,
	}
	conf := pbf.Config{
		IncludeMetadata: true,
		// one block at a time keeps the file order
		Concurrency: 1,
	}
	if kinds.Has(element.NODE) {
		s.nodes = make(chan []osm.Node)
		conf.Nodes = s.nodes
	}
	if kinds.Has(element.WAY) {
		s.ways = make(chan []osm.Way)
		conf.Ways = s.ways
	}
	if kinds.Has(element.RELATION) {
		s.relations = make(chan []osm.Relation)
		conf.Relations = s.relations
	}
	p := pbf.New(r, conf)
	g.Go(func() error {
		defer close(s.parsed)
		if err := p.Parse(ctx); err != nil && err != context.Canceled {
			return errors.Wrap(err, "parsing PBF")
		}
		return nil
	})
	return s
}

// Open opens a PBF file and starts parsing.
func Open(path string, kinds element.Kinds) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening PBF file")
	}
	s := New(f, kinds)
	s.closer = f
	return s, nil
}

func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	s.current = nil
	for {
		switch {
		case len(s.nodeBatch) > 0:
			s.node.Reset()
			setNode(&s.node, &s.nodeBatch[0])
			s.nodeBatch = s.nodeBatch[1:]
			s.current = &s.node
			return true
		case len(s.wayBatch) > 0:
			s.way.Reset()
			setWay(&s.way, &s.wayBatch[0])
			s.wayBatch = s.wayBatch[1:]
			s.current = &s.way
			return true
		case len(s.relBatch) > 0:
			s.rel.Reset()
			setRelation(&s.rel, &s.relBatch[0])
			s.relBatch = s.relBatch[1:]
			s.current = &s.rel
			return true
		}
		if s.nodes == nil && s.ways == nil && s.relations == nil {
			s.finish()
			return false
		}
		select {
		case <-s.parsed:
			// Parse closes the channels after the last batch, but
			// returns early without closing on errors.
			s.finish()
			return false
		case nds, ok := <-s.nodes:
			if !ok {
				s.nodes = nil
			}
			s.nodeBatch = nds
		case ws, ok := <-s.ways:
			if !ok {
				s.ways = nil
			}
			s.wayBatch = ws
		case rels, ok := <-s.relations:
			if !ok {
				s.relations = nil
			}
			s.relBatch = rels
		}
	}
}

func (s *Scanner) finish() {
	s.done = true
	s.cancel()
	// the parser blocks on channels until they are drained
	for {
		select {
		case <-s.parsed:
			if err := s.group.Wait(); err != nil && s.err == nil {
				s.err = err
			}
			return
		case _, ok := <-s.nodes:
			if !ok {
				s.nodes = nil
			}
		case _, ok := <-s.ways:
			if !ok {
				s.ways = nil
			}
		case _, ok := <-s.relations:
			if !ok {
				s.relations = nil
			}
		}
	}
}

func (s *Scanner) Element() element.Element {
	return s.current
}

func (s *Scanner) Err() error {
	return s.err
}

// Close stops the background parser and closes files opened with Open.
func (s *Scanner) Close() error {
	if !s.done {
		s.finish()
	}
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func setNode(dst *element.Node, src *osm.Node) {
	setElem(&dst.OSMElem, &src.Element)
	dst.Lat = formatCoord(src.Lat)
	dst.Lon = formatCoord(src.Long)
	dst.Attrs |= element.AttrLat | element.AttrLon
}

func setWay(dst *element.Way, src *osm.Way) {
	setElem(&dst.OSMElem, &src.Element)
	dst.Refs = append(dst.Refs, src.Refs...)
}

func setRelation(dst *element.Relation, src *osm.Relation) {
	setElem(&dst.OSMElem, &src.Element)
	for _, m := range src.Members {
		dst.Members = append(dst.Members, element.Member{
			ID:   m.ID,
			Type: memberKind(m.Type),
			Role: m.Role,
		})
	}
}

func memberKind(t osm.MemberType) element.Kind {
	switch t {
	case osm.WayMember:
		return element.WAY
	case osm.RelationMember:
		return element.RELATION
	}
	return element.NODE
}

func setElem(dst *element.OSMElem, src *osm.Element) {
	dst.ID = src.ID
	dst.Attrs |= element.AttrID
	if md := src.Metadata; md != nil {
		dst.Metadata = element.Metadata{
			User:      md.UserName,
			UID:       strconv.FormatInt(int64(md.UserID), 10),
			Version:   strconv.FormatInt(int64(md.Version), 10),
			Changeset: strconv.FormatInt(md.Changeset, 10),
			Timestamp: md.Timestamp.UTC().Format(time.RFC3339),
		}
		dst.Attrs |= element.AttrUser | element.AttrUID | element.AttrVersion |
			element.AttrChangeset | element.AttrTimestamp
	}
	dst.Tags = appendSortedTags(dst.Tags, src.Tags)
}

func appendSortedTags(dst element.Tags, tags osm.Tags) element.Tags {
	start := len(dst)
	for k, v := range tags {
		dst = append(dst, element.Tag{Key: k, Value: v})
	}
	added := dst[start:]
	sort.Slice(added, func(i, j int) bool { return added[i].Key < added[j].Key })
	return dst
}

func formatCoord(c float64) string {
	return strconv.FormatFloat(c, 'f', 7, 64)
}
