// Package reader drives the element-by-element processing of an OSM
// file.
package reader

import (
	"strings"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/parser/osmxml"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/parser/pbf"
)

// Source returns the elements of an OSM file one at a time. An element
// returned by Element is released on the next call to Next and must not
// be kept.
type Source interface {
	Next() bool
	Element() element.Element
	Err() error
	Close() error
}

// Open returns an osmxml Source for .osm/.osm.gz/.osm.bz2 files and a pbf
// Source for .pbf files.
func Open(path string, kinds element.Kinds) (Source, error) {
	if strings.HasSuffix(path, ".pbf") {
		s, err := pbf.Open(path, kinds)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := osmxml.Open(path, kinds)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ForEach calls visit for all elements of kinds in document order.
// Errors from visit stop the iteration and are returned unchanged.
// Errors of the source (e.g. *osmxml.ParseError) are returned after
// all elements before the error were visited.
func ForEach(src Source, kinds element.Kinds, visit func(element.Element) error) error {
	for src.Next() {
		e := src.Element()
		if !kinds.Has(e.Kind()) {
			continue
		}
		if err := visit(e); err != nil {
			return err
		}
	}
	return src.Err()
}
