package shape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
)

func newShaper(t *testing.T, policy rules.KeyPolicy) *Shaper {
	r := rules.Default()
	r.Keys.ProblemPolicy = policy
	s, err := New(r, 16)
	require.NoError(t, err)
	return s
}

func metadata() element.Metadata {
	return element.Metadata{
		User:      "jdoe",
		UID:       "4711",
		Version:   "3",
		Changeset: "123456",
		Timestamp: "2016-05-01T12:00:00Z",
	}
}

func testWay(id int64, refs []int64, tags element.Tags) *element.Way {
	w := &element.Way{Refs: refs}
	w.ID = id
	w.Attrs = WayAttrs
	w.Metadata = metadata()
	w.Tags = tags
	return w
}

func testNode(id int64, tags element.Tags) *element.Node {
	n := &element.Node{Lat: "39.7392358", Lon: "-104.990251"}
	n.ID = id
	n.Attrs = NodeAttrs
	n.Metadata = metadata()
	n.Tags = tags
	return n
}

func TestShapeWay(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	w := testWay(55, []int64{1001, 1002}, element.Tags{{Key: "addr:street", Value: "123 Main St"}})

	r, err := s.Shape(w)
	require.NoError(t, err)

	assert.Equal(t, element.WAY, r.Kind)
	assert.Nil(t, r.Node)
	assert.Equal(t, &WayRecord{
		ID:        55,
		User:      "jdoe",
		UID:       "4711",
		Version:   "3",
		Changeset: "123456",
		Timestamp: "2016-05-01T12:00:00Z",
	}, r.Way)
	assert.Equal(t, []WayNodeRecord{
		{WayID: 55, NodeID: 1001, Position: 0},
		{WayID: 55, NodeID: 1002, Position: 1},
	}, r.WayNodes)
	assert.Equal(t, []TagRecord{
		{OwnerID: 55, Key: "street", Value: "123 Main Street", Type: "addr"},
	}, r.Tags)
	assert.Equal(t, 1, r.Outcome.RewrittenStreets)
	assert.Equal(t, int64(55), r.ID())
}

func TestShapeWayNodePositions(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	refs := []int64{7, 3, 7, 9, 1}
	r, err := s.Shape(testWay(8, refs, nil))
	require.NoError(t, err)

	require.Len(t, r.WayNodes, len(refs))
	for i, wn := range r.WayNodes {
		assert.Equal(t, int64(8), wn.WayID)
		assert.Equal(t, refs[i], wn.NodeID)
		assert.Equal(t, i, wn.Position)
	}
	assert.Empty(t, r.Tags)
}

func TestShapeNode(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	n := testNode(42, element.Tags{
		{Key: "name", Value: "Union Station"},
		{Key: "addr:postcode", Value: "77002-1234"},
		{Key: "addr:street", Value: "Wynkoop St"},
		{Key: "addr:city", Value: "Denver"},
	})

	r, err := s.Shape(n)
	require.NoError(t, err)
	assert.Equal(t, element.NODE, r.Kind)
	assert.Nil(t, r.Way)
	assert.Nil(t, r.WayNodes)
	assert.Equal(t, &NodeRecord{
		ID:        42,
		Lat:       "39.7392358",
		Lon:       "-104.990251",
		User:      "jdoe",
		UID:       "4711",
		Version:   "3",
		Changeset: "123456",
		Timestamp: "2016-05-01T12:00:00Z",
	}, r.Node)
	assert.Equal(t, []TagRecord{
		{42, "name", "Union Station", "regular"},
		{42, "postcode", "77002", "addr"},
		{42, "street", "Wynkoop Street", "addr"},
		{42, "city", "Denver", "addr"},
	}, r.Tags)
}

func TestShapeRejectsPostcode(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	n := testNode(1, element.Tags{
		{Key: "addr:postcode", Value: "80203"},
		{Key: "postcode", Value: "CO"},
		{Key: "name", Value: "x"},
	})
	r, err := s.Shape(n)
	require.NoError(t, err)
	assert.Equal(t, []TagRecord{{1, "name", "x", "regular"}}, r.Tags)
	assert.Equal(t, 2, r.Outcome.RejectedPostcodes)
}

func TestShapeStreetAlwaysEmitted(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	n := testNode(1, element.Tags{
		{Key: "addr:street", Value: "Broadway"},
		{Key: "street", Value: "St Paul St"},
		{Key: "addr:street", Value: ""},
	})
	r, err := s.Shape(n)
	require.NoError(t, err)
	assert.Equal(t, []TagRecord{
		{1, "street", "Broadway", "addr"},
		{1, "street", "St Paul Street", "regular"},
		{1, "street", "", "addr"},
	}, r.Tags)
	assert.Equal(t, 1, r.Outcome.RewrittenStreets)
}

func TestShapeKeepsRepeatedTags(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	n := testNode(1, element.Tags{{Key: "name", Value: "a"}, {Key: "name", Value: "a"}, {Key: "a:b:c", Value: "v"}})
	r, err := s.Shape(n)
	require.NoError(t, err)
	assert.Equal(t, []TagRecord{
		{1, "name", "a", "regular"},
		{1, "name", "a", "regular"},
		{1, "b:c", "v", "a"},
	}, r.Tags)
}

func TestShapeProblemKeys(t *testing.T) {
	tags := element.Tags{{Key: "name", Value: "a"}, {Key: "addr.street", Value: "Main St"}, {Key: "", Value: "empty"}, {Key: "note", Value: "b"}}

	t.Run("pass", func(t *testing.T) {
		s := newShaper(t, rules.PassKeys)
		r, err := s.Shape(testNode(1, tags))
		require.NoError(t, err)
		assert.Equal(t, []TagRecord{
			{1, "name", "a", "regular"},
			{1, "addr.street", "Main St", "regular"},
			{1, "note", "b", "regular"},
		}, r.Tags)
		assert.Equal(t, Outcome{ProblemKeys: 1, EmptyKeys: 1}, r.Outcome)
	})

	t.Run("drop", func(t *testing.T) {
		s := newShaper(t, rules.DropKeys)
		r, err := s.Shape(testNode(1, tags))
		require.NoError(t, err)
		assert.Equal(t, []TagRecord{
			{1, "name", "a", "regular"},
			{1, "note", "b", "regular"},
		}, r.Tags)
		assert.Equal(t, Outcome{ProblemKeys: 1, DroppedKeys: 1, EmptyKeys: 1}, r.Outcome)
	})
}

func TestShapeMissingAttributes(t *testing.T) {
	s := newShaper(t, rules.PassKeys)

	n := testNode(42, nil)
	n.Attrs &^= element.AttrUser | element.AttrLon
	_, err := s.Shape(n)
	var mae *MissingAttributeError
	require.True(t, errors.As(err, &mae))
	assert.Equal(t, element.NODE, mae.Kind)
	assert.Equal(t, int64(42), mae.ID)
	assert.Equal(t, []string{"lon", "user"}, mae.Attrs)
	assert.Equal(t, "node 42: missing attribute lon, user", err.Error())

	w := testWay(0, []int64{1}, nil)
	w.Attrs &^= element.AttrID
	_, err = s.Shape(w)
	require.True(t, errors.As(err, &mae))
	assert.Equal(t, "way without id: missing attribute id", err.Error())

	w = testWay(9, []int64{1}, nil)
	w.BadRefs = 1
	_, err = s.Shape(w)
	require.True(t, errors.As(err, &mae))
	assert.Equal(t, []string{"ref"}, mae.Attrs)

	// lat/lon are not required for ways
	w = testWay(10, nil, nil)
	w.Attrs &^= element.AttrLat | element.AttrLon
	_, err = s.Shape(w)
	assert.NoError(t, err)
}

func TestShapeRelation(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	rel := &element.Relation{}
	rel.ID = 1
	_, err := s.Shape(rel)
	assert.Equal(t, ErrNotShaped, err)
}

func TestShapeIdempotent(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	w := testWay(55, []int64{1, 2, 3}, element.Tags{
		{Key: "addr:street", Value: "123 Main St"},
		{Key: "addr:postcode", Value: "77002-1234"},
		{Key: "addr:postcode", Value: "80203"},
		{Key: "highway", Value: "residential"},
	})
	first, err := s.Shape(w)
	require.NoError(t, err)
	second, err := s.Shape(w)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestShapeDoesNotReferenceElement(t *testing.T) {
	s := newShaper(t, rules.PassKeys)
	w := testWay(5, []int64{1, 2}, element.Tags{{Key: "name", Value: "a"}})
	r, err := s.Shape(w)
	require.NoError(t, err)

	w.Reset()
	w.Refs = append(w.Refs, 99, 98)
	w.Tags = append(w.Tags, element.Tag{Key: "other", Value: "b"})

	assert.Equal(t, int64(1), r.WayNodes[0].NodeID)
	assert.Equal(t, "name", r.Tags[0].Key)
}

func TestRows(t *testing.T) {
	n := NodeRecord{1, "1.5", "2.5", "u", "2", "3", "4", "t"}
	assert.Len(t, n.Row(), len(NodeFields))
	w := WayRecord{1, "u", "2", "3", "4", "t"}
	assert.Len(t, w.Row(), len(WayFields))
	wn := WayNodeRecord{1, 2, 3}
	assert.Equal(t, []interface{}{int64(1), int64(2), 3}, wn.Row())
	tag := TagRecord{1, "k", "v", "regular"}
	assert.Equal(t, []interface{}{int64(1), "k", "v", "regular"}, tag.Row())
}
