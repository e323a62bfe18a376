package shape

import (
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
)

// Column order of the exported tables.
var (
	NodeFields    = []string{"id", "lat", "lon", "user", "uid", "version", "changeset", "timestamp"}
	WayFields     = []string{"id", "user", "uid", "version", "changeset", "timestamp"}
	TagFields     = []string{"owner_id", "key", "value", "type"}
	WayNodeFields = []string{"way_id", "node_id", "position"}
)

type NodeRecord struct {
	ID        int64
	Lat       string
	Lon       string
	User      string
	UID       string
	Version   string
	Changeset string
	Timestamp string
}

func (r *NodeRecord) Row() []interface{} {
	return []interface{}{r.ID, r.Lat, r.Lon, r.User, r.UID, r.Version, r.Changeset, r.Timestamp}
}

type WayRecord struct {
	ID        int64
	User      string
	UID       string
	Version   string
	Changeset string
	Timestamp string
}

func (r *WayRecord) Row() []interface{} {
	return []interface{}{r.ID, r.User, r.UID, r.Version, r.Changeset, r.Timestamp}
}

// WayNodeRecord orders the nodes of a way. Positions of one way start at
// 0 and have no gaps.
type WayNodeRecord struct {
	WayID    int64
	NodeID   int64
	Position int
}

func (r *WayNodeRecord) Row() []interface{} {
	return []interface{}{r.WayID, r.NodeID, r.Position}
}

// TagRecord is a normalized tag. Key is the key without namespace, Type
// the namespace.
type TagRecord struct {
	OwnerID int64
	Key     string
	Value   string
	Type    string
}

func (r *TagRecord) Row() []interface{} {
	return []interface{}{r.OwnerID, r.Key, r.Value, r.Type}
}

// Outcome counts what happened to the tags of one element.
type Outcome struct {
	RejectedPostcodes int
	RewrittenStreets  int
	ProblemKeys       int
	DroppedKeys       int
	EmptyKeys         int
}

func (o *Outcome) Add(other Outcome) {
	o.RejectedPostcodes += other.RejectedPostcodes
	o.RewrittenStreets += other.RewrittenStreets
	o.ProblemKeys += other.ProblemKeys
	o.DroppedKeys += other.DroppedKeys
	o.EmptyKeys += other.EmptyKeys
}

// Records are all records of one element. Either Node or Way is set.
type Records struct {
	Kind     element.Kind
	Node     *NodeRecord
	Way      *WayRecord
	WayNodes []WayNodeRecord
	Tags     []TagRecord
	Outcome  Outcome
}

// ID returns the ID of the shaped element.
func (r *Records) ID() int64 {
	if r.Node != nil {
		return r.Node.ID
	}
	if r.Way != nil {
		return r.Way.ID
	}
	return 0
}
