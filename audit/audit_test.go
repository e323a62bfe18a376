package audit

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/normalize"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/parser/osmxml"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
)

const doc = `<osm>
 <node id="1" lat="1" lon="2">
  <tag k="addr:street" v="Colfax Ave"/>
  <tag k="addr:postcode" v="77002"/>
  <tag k="name" v="x"/>
 </node>
 <node id="2" lat="1" lon="2">
  <tag k="addr:street" v="Main Street"/>
  <tag k="addr:postcode" v="80203"/>
  <tag k="name:en" v="x"/>
 </node>
 <way id="3">
  <tag k="addr:street" v="Broadway Ave"/>
  <tag k="addr:street" v="Colfax Ave"/>
  <tag k="FIXME" v="y"/>
  <tag k="bad key" v="y"/>
  <tag k="postcode" v="80203"/>
 </way>
 <way id="4"><tag k="addr:street" v="123 Main St"/></way>
 <relation id="5"><tag k="addr:street" v="Larimer Rd"/></relation>
</osm>`

func runAudit(t *testing.T) *Report {
	src := osmxml.New(strings.NewReader(doc), element.AllKinds)
	report, err := Run(src, rules.Default(), element.KindsOf(element.NODE, element.WAY))
	require.NoError(t, err)
	return report
}

func TestRun(t *testing.T) {
	report := runAudit(t)
	assert.Equal(t, 4, report.Elements)
	assert.Equal(t, map[string]map[string]struct{}{
		"Ave": {"Colfax Ave": {}, "Broadway Ave": {}},
		"St":  {"123 Main St": {}},
	}, report.StreetTypes)
	assert.Equal(t, map[normalize.KeyClass]int{
		normalize.Lower:        2,
		normalize.LowerColon:   8,
		normalize.ProblemChars: 1,
		normalize.Other:        1,
	}, report.KeyClasses)
	assert.Equal(t, map[string]int{"80203": 2}, report.RejectedPostcodes)
}

func TestRunRelations(t *testing.T) {
	src := osmxml.New(strings.NewReader(doc), element.AllKinds)
	report, err := Run(src, rules.Default(), element.KindsOf(element.RELATION))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Elements)
	assert.Equal(t, map[string]map[string]struct{}{
		"Rd": {"Larimer Rd": {}},
	}, report.StreetTypes)
	assert.Equal(t, map[normalize.KeyClass]int{normalize.LowerColon: 1}, report.KeyClasses)
}

func TestWrite(t *testing.T) {
	report := runAudit(t)
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, nil))
	assert.Equal(t, `elements: 4
unexpected street types: 2
  Ave (2)
    Broadway Ave
    Colfax Ave
  St (1)
    123 Main St
key classes:
  lower: 2
  lower_colon: 8
  problemchars: 1
  other: 1
rejected postcodes: 1
  "80203" (2)
`, buf.String())
}

func TestWriteSuggestions(t *testing.T) {
	report := runAudit(t)
	r := rules.Default()
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, normalize.NewStreet(r.Street, 0)))
	assert.Contains(t, buf.String(), "    Colfax Ave => Colfax Avenue\n")
	assert.Contains(t, buf.String(), "    123 Main St => 123 Main Street\n")
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteError(t *testing.T) {
	report := runAudit(t)
	assert.EqualError(t, report.Write(failWriter{}, nil), "disk full")
}

func TestRunParseError(t *testing.T) {
	src := osmxml.New(strings.NewReader(`<osm><node id="1">`), element.AllKinds)
	_, err := Run(src, rules.Default(), element.AllKinds)
	var perr *osmxml.ParseError
	assert.True(t, errors.As(err, &perr))
}
