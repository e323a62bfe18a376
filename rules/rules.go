// Package rules loads the regional normalization rules: the street
// abbreviation table with its exception words, the expected street
// types, the postal code prefix and the policy for problematic tag keys.
//
// Rules are read once and never modified afterwards.
package rules

import (
	_ "embed"
	"fmt"
	"io/ioutil"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

//go:embed denver.yml
var denverRules []byte

//go:embed denver_extended.yml
var denverExtendedRules []byte

var bundled = map[string][]byte{
	"denver":          denverRules,
	"denver-extended": denverExtendedRules,
}

const (
	defaultPostcodeWidth = 5
	DefaultName          = "denver"
)

type Rules struct {
	Name     string   `yaml:"name"`
	Street   Street   `yaml:"street"`
	Postcode Postcode `yaml:"postcode"`
	Keys     Keys     `yaml:"keys"`
}

type Street struct {
	Abbreviations Abbreviations `yaml:"abbreviations"`
	// Exceptions are compared case-insensitively against the token
	// before an abbreviation.
	Exceptions []string `yaml:"exceptions"`
	// Expected street types, only used for audits.
	Expected []string `yaml:"expected"`
}

type Postcode struct {
	Prefix string `yaml:"prefix"`
	Width  int    `yaml:"width"`
}

type Keys struct {
	ProblemPolicy KeyPolicy `yaml:"problem_policy"`
}

// KeyPolicy defines what happens with tags whose keys contain
// characters that would break flat file output.
type KeyPolicy string

const (
	// PassKeys emits the tag unchanged and only counts the key.
	PassKeys KeyPolicy = "pass"
	// DropKeys does not emit the tag.
	DropKeys KeyPolicy = "drop"
)

func (p KeyPolicy) valid() bool {
	return p == PassKeys || p == DropKeys
}

type Abbreviation struct {
	From string
	To   string
}

// Abbreviations keeps the table in file order.
type Abbreviations []Abbreviation

func (a *Abbreviations) UnmarshalYAML(unmarshal func(interface{}) error) error {
	slice := yaml.MapSlice{}
	if err := unmarshal(&slice); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(slice))
	for _, item := range slice {
		from, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("abbreviation '%v' not a string", item.Key)
		}
		to, ok := item.Value.(string)
		if !ok {
			return fmt.Errorf("replacement for abbreviation '%s' not a string", from)
		}
		if _, ok := seen[from]; ok {
			return fmt.Errorf("duplicate abbreviation '%s'", from)
		}
		seen[from] = struct{}{}
		*a = append(*a, Abbreviation{From: from, To: to})
	}
	return nil
}

// Map returns the table as a lookup map.
func (a Abbreviations) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, abbr := range a {
		m[abbr.From] = abbr.To
	}
	return m
}

// Load reads rules from a YAML file. Names of bundled rule sets
// ("denver", "denver-extended") are accepted as well.
func Load(path string) (*Rules, error) {
	if b, ok := bundled[path]; ok {
		return Parse(b)
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading rules")
	}
	r, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "rules %s", path)
	}
	return r, nil
}

// Default returns the bundled Denver rules.
func Default() *Rules {
	r, err := Parse(denverRules)
	if err != nil {
		panic(err)
	}
	return r
}

func Parse(b []byte) (*Rules, error) {
	r := &Rules{}
	if err := yaml.UnmarshalStrict(b, r); err != nil {
		return nil, err
	}
	if r.Postcode.Width == 0 {
		r.Postcode.Width = defaultPostcodeWidth
	}
	if r.Keys.ProblemPolicy == "" {
		r.Keys.ProblemPolicy = PassKeys
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) check() error {
	errs := []string{}
	for _, abbr := range r.Street.Abbreviations {
		if abbr.From == "" || strings.ContainsAny(abbr.From, " \t\r\n") {
			errs = append(errs, fmt.Sprintf("invalid abbreviation '%s'", abbr.From))
		}
		if abbr.To == "" {
			errs = append(errs, fmt.Sprintf("empty replacement for '%s'", abbr.From))
		}
	}
	if r.Postcode.Prefix == "" {
		errs = append(errs, "missing postcode prefix")
	}
	if r.Postcode.Width < utf8.RuneCountInString(r.Postcode.Prefix) {
		errs = append(errs, fmt.Sprintf("postcode width %d shorter than prefix '%s'",
			r.Postcode.Width, r.Postcode.Prefix))
	}
	if !r.Keys.ProblemPolicy.valid() {
		errs = append(errs, fmt.Sprintf("unknown problem_policy '%s'", r.Keys.ProblemPolicy))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
