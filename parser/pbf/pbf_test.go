package pbf

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/omniscale/go-osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
)

func TestInvalidInput(t *testing.T) {
	s := New(strings.NewReader("\x00\x00\x00\x05xx"), element.AllKinds)
	assert.False(t, s.Next())
	assert.Error(t, s.Err())
	assert.Nil(t, s.Element())
	assert.False(t, s.Next())
	assert.NoError(t, s.Close())
}

func TestCloseBeforeNext(t *testing.T) {
	s := New(strings.NewReader(""), element.KindsOf(element.NODE))
	assert.NoError(t, s.Close())
	assert.False(t, s.Next())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.osm.pbf"), element.AllKinds)
	assert.Error(t, err)
}

func TestSetNode(t *testing.T) {
	src := osm.Node{
		Element: osm.Element{
			ID:   42,
			Tags: osm.Tags{"name": "Union Station", "addr:street": "Wynkoop St", "amenity": "station"},
			Metadata: &osm.Metadata{
				UserID:    7,
				UserName:  "jdoe",
				Version:   3,
				Timestamp: time.Date(2016, 5, 1, 12, 0, 0, 0, time.UTC),
				Changeset: 100,
			},
		},
		Lat:  39.7392358,
		Long: -104.990251,
	}
	dst := element.Node{}
	setNode(&dst, &src)

	assert.Equal(t, int64(42), dst.ID)
	assert.Equal(t, "39.7392358", dst.Lat)
	assert.Equal(t, "-104.9902510", dst.Lon)
	assert.Equal(t, element.Metadata{
		User:      "jdoe",
		UID:       "7",
		Version:   "3",
		Changeset: "100",
		Timestamp: "2016-05-01T12:00:00Z",
	}, dst.Metadata)
	assert.Equal(t, element.Tags{
		{Key: "addr:street", Value: "Wynkoop St"},
		{Key: "amenity", Value: "station"},
		{Key: "name", Value: "Union Station"},
	}, dst.Tags)
	assert.True(t, dst.Attrs.Has(element.AttrID|element.AttrLat|element.AttrLon|element.AttrTimestamp))
}

func TestSetWayWithoutMetadata(t *testing.T) {
	src := osm.Way{Element: osm.Element{ID: 55}, Refs: []int64{1, 2, 3}}
	dst := element.Way{}
	setWay(&dst, &src)
	assert.Equal(t, []int64{1, 2, 3}, dst.Refs)
	assert.True(t, dst.Attrs.Has(element.AttrID))
	assert.False(t, dst.Attrs.Has(element.AttrUser))
	assert.Empty(t, dst.Tags)
}

func TestSetRelation(t *testing.T) {
	src := osm.Relation{
		Element: osm.Element{ID: 9},
		Members: []osm.Member{
			{ID: 1, Type: osm.NodeMember, Role: "stop"},
			{ID: 2, Type: osm.WayMember, Role: "outer"},
			{ID: 3, Type: osm.RelationMember},
		},
	}
	dst := element.Relation{}
	setRelation(&dst, &src)
	assert.Equal(t, []element.Member{
		{ID: 1, Type: element.NODE, Role: "stop"},
		{ID: 2, Type: element.WAY, Role: "outer"},
		{ID: 3, Type: element.RELATION},
	}, dst.Members)
}

func TestAppendSortedTagsKeepsExisting(t *testing.T) {
	tags := element.Tags{{Key: "z", Value: "1"}}
	tags = appendSortedTags(tags, osm.Tags{"b": "2", "a": "3"})
	require.Len(t, tags, 3)
	assert.Equal(t, element.Tags{{Key: "z", Value: "1"}, {Key: "a", Value: "3"}, {Key: "b", Value: "2"}}, tags)
}
