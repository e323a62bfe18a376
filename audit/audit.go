// Package audit reports street names with unexpected street types, tag
// key classes and postcodes outside the region before an export.
package audit

import (
	"fmt"
	"io"
	"sort"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/normalize"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/reader"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
)

const streetKey = "addr:street"

type Report struct {
	Elements int
	// StreetTypes maps unexpected street types to all names with
	// this type.
	StreetTypes map[string]map[string]struct{}
	KeyClasses  map[normalize.KeyClass]int
	// RejectedPostcodes counts postcode values that the export would
	// drop.
	RejectedPostcodes map[string]int
}

type Auditor struct {
	expected map[string]struct{}
	postcode *normalize.Postcode
	report   Report
}

func New(r *rules.Rules) (*Auditor, error) {
	postcode, err := normalize.NewPostcode(r.Postcode.Prefix, r.Postcode.Width)
	if err != nil {
		return nil, err
	}
	a := &Auditor{
		expected: make(map[string]struct{}),
		postcode: postcode,
		report: Report{
			StreetTypes:       make(map[string]map[string]struct{}),
			KeyClasses:        make(map[normalize.KeyClass]int),
			RejectedPostcodes: make(map[string]int),
		},
	}
	for _, t := range r.Street.Expected {
		a.expected[t] = struct{}{}
	}
	return a, nil
}

// Visit adds the tags of an element to the report.
func (a *Auditor) Visit(e element.Element) error {
	a.report.Elements++
	for _, tag := range e.Base().Tags {
		a.report.KeyClasses[normalize.Classify(tag.Key)]++
		if tag.Key == streetKey {
			a.auditStreet(tag.Value)
		}
		if normalize.SplitKey(tag.Key).Local == "postcode" {
			if _, ok := a.postcode.Normalize(tag.Value); !ok {
				a.report.RejectedPostcodes[tag.Value]++
			}
		}
	}
	return nil
}

func (a *Auditor) auditStreet(name string) {
	streetType := normalize.StreetType(name)
	if streetType == "" {
		return
	}
	if _, ok := a.expected[streetType]; ok {
		return
	}
	names, ok := a.report.StreetTypes[streetType]
	if !ok {
		names = make(map[string]struct{})
		a.report.StreetTypes[streetType] = names
	}
	names[name] = struct{}{}
}

func (a *Auditor) Report() *Report {
	return &a.report
}

// Run audits all elements of kinds in src.
func Run(src reader.Source, r *rules.Rules, kinds element.Kinds) (*Report, error) {
	a, err := New(r)
	if err != nil {
		return nil, err
	}
	if err := reader.ForEach(src, kinds, a.Visit); err != nil {
		return nil, err
	}
	return a.Report(), nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Write prints the report sorted by street type and name. With a
// non-nil street normalizer each name is followed by its normalized
// form if it differs.
func (r *Report) Write(w io.Writer, street *normalize.Street) error {
	ew := &errWriter{w: w}
	ew.printf("elements: %d\n", r.Elements)

	ew.printf("unexpected street types: %d\n", len(r.StreetTypes))
	types := make([]string, 0, len(r.StreetTypes))
	for t := range r.StreetTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		names := sortedKeys(r.StreetTypes[t])
		ew.printf("  %s (%d)\n", t, len(names))
		for _, name := range names {
			if street != nil {
				if better := street.Normalize(name); better != name {
					ew.printf("    %s => %s\n", name, better)
					continue
				}
			}
			ew.printf("    %s\n", name)
		}
	}

	ew.printf("key classes:\n")
	for _, c := range []normalize.KeyClass{normalize.Lower, normalize.LowerColon, normalize.ProblemChars, normalize.Other} {
		ew.printf("  %s: %d\n", c, r.KeyClasses[c])
	}

	codes := make([]string, 0, len(r.RejectedPostcodes))
	for c := range r.RejectedPostcodes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	ew.printf("rejected postcodes: %d\n", len(codes))
	for _, c := range codes {
		ew.printf("  %q (%d)\n", c, r.RejectedPostcodes[c])
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
