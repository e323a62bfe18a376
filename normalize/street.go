package normalize

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
)

// Street replaces abbreviated street types in street names.
//
// A token is replaced if it is in the abbreviation table, if it is not
// the first token and if the token before it is not an exception word
// like "Suite". The first-token rule keeps names like "St Peter Way"
// intact, the exception words keep unit designators like "Ste E".
//
// Street is not safe for concurrent use.
type Street struct {
	table      map[string]string
	exceptions map[string]struct{}
	fold       cases.Caser
	cache      *lru.Cache[string, string]
}

// NewStreet creates a normalizer for the street rules. Normalized names
// are memoized in an LRU cache of cacheSize entries; cacheSize <= 0
// disables the cache.
func NewStreet(r rules.Street, cacheSize int) *Street {
	s := &Street{
		table:      r.Abbreviations.Map(),
		exceptions: make(map[string]struct{}, len(r.Exceptions)),
		fold:       cases.Fold(),
	}
	for _, e := range r.Exceptions {
		s.exceptions[s.fold.String(e)] = struct{}{}
	}
	if cacheSize > 0 {
		// only fails for size <= 0
		s.cache, _ = lru.New[string, string](cacheSize)
	}
	return s
}

// Normalize returns the normalized street name. Names without any
// replacement are returned unchanged, otherwise the tokens are joined
// with single spaces.
func (s *Street) Normalize(raw string) string {
	if s.cache != nil {
		if name, ok := s.cache.Get(raw); ok {
			return name
		}
	}
	name := s.normalize(raw)
	if s.cache != nil {
		s.cache.Add(raw, name)
	}
	return name
}

func (s *Street) normalize(raw string) string {
	words := strings.Fields(raw)
	var result []string
	for i := 1; i < len(words); i++ {
		full, ok := s.table[words[i]]
		if !ok {
			continue
		}
		if s.isException(words[i-1]) {
			continue
		}
		if result == nil {
			// copy, the exception check needs the original tokens
			result = make([]string, len(words))
			copy(result, words)
		}
		result[i] = full
	}
	if result == nil {
		return raw
	}
	return strings.Join(result, " ")
}

func (s *Street) isException(word string) bool {
	_, ok := s.exceptions[s.fold.String(word)]
	return ok
}

// StreetType returns the last token of a street name, the part that
// usually names the street type. Returns an empty string for empty names.
func StreetType(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
