package reader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/parser/osmxml"
)

const doc = `<osm>
 <node id="1" lat="1" lon="2"/>
 <way id="10"><nd ref="1"/></way>
 <node id="2" lat="1" lon="2"/>
 <relation id="20"><member type="node" ref="1" role=""/></relation>
 <way id="11"><nd ref="2"/></way>
</osm>`

func visited(t *testing.T, src Source, kinds element.Kinds) []string {
	var result []string
	err := ForEach(src, kinds, func(e element.Element) error {
		result = append(result, e.(interface{ String() string }).String())
		return nil
	})
	require.NoError(t, err)
	return result
}

func TestForEachDocumentOrder(t *testing.T) {
	src := osmxml.New(strings.NewReader(doc), element.AllKinds)
	assert.Equal(t, []string{"node 1", "way 10", "node 2", "relation 20", "way 11"},
		visited(t, src, element.AllKinds))
}

func TestForEachFiltersKinds(t *testing.T) {
	// relations are scanned by the source but not visited
	src := osmxml.New(strings.NewReader(doc), element.AllKinds)
	assert.Equal(t, []string{"node 1", "way 10", "node 2", "way 11"},
		visited(t, src, element.KindsOf(element.NODE, element.WAY)))

	src = osmxml.New(strings.NewReader(doc), element.KindsOf(element.WAY))
	assert.Equal(t, []string{"way 10", "way 11"},
		visited(t, src, element.AllKinds))
}

func TestForEachVisitError(t *testing.T) {
	src := osmxml.New(strings.NewReader(doc), element.AllKinds)
	stop := errors.New("stop")
	n := 0
	err := ForEach(src, element.AllKinds, func(e element.Element) error {
		n++
		if e.Kind() == element.WAY {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 2, n)
}

func TestForEachParseError(t *testing.T) {
	src := osmxml.New(strings.NewReader(`<osm><node id="1" lat="1" lon="2"/><way id="2"></osm>`), element.AllKinds)
	var ids []int64
	err := ForEach(src, element.AllKinds, func(e element.Element) error {
		ids = append(ids, e.Base().ID)
		return nil
	})
	var perr *osmxml.ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, []int64{1}, ids)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.osm")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	src, err := Open(path, element.KindsOf(element.NODE))
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"node 1", "node 2"}, visited(t, src, element.AllKinds))

	_, err = Open(filepath.Join(dir, "missing.osm"), element.AllKinds)
	assert.Error(t, err)
	_, err = Open(filepath.Join(dir, "missing.osm.pbf"), element.AllKinds)
	assert.Error(t, err)
}
