package normalize

import (
	"regexp"
	"strings"
)

// DefaultNamespace is the type of tags without a colon in their key.
const DefaultNamespace = "regular"

// Key is a tag key split at the first colon.
type Key struct {
	Namespace string
	Local     string
}

// SplitKey splits "addr:street" into {addr street}. Keys without colon
// get the DefaultNamespace. Only the first colon counts, "a:b:c" is
// split into {a b:c}.
func SplitKey(raw string) Key {
	i := strings.IndexByte(raw, ':')
	if i == -1 {
		return Key{Namespace: DefaultNamespace, Local: raw}
	}
	return Key{Namespace: raw[:i], Local: raw[i+1:]}
}

// problemChars break CSV and SQL output.
const problemChars = "=+/&<>;'\"?%#$@,. \t\r\n"

// IsProblematic returns true for empty keys and keys with problemChars.
func IsProblematic(raw string) bool {
	return raw == "" || strings.ContainsAny(raw, problemChars)
}

type KeyClass int

const (
	// Lower keys only contain lowercase letters and underscores.
	Lower KeyClass = iota
	// LowerColon keys are two Lower keys joined by a single colon.
	LowerColon
	ProblemChars
	Other
)

func (c KeyClass) String() string {
	switch c {
	case Lower:
		return "lower"
	case LowerColon:
		return "lower_colon"
	case ProblemChars:
		return "problemchars"
	}
	return "other"
}

var (
	lowerRe      = regexp.MustCompile(`^([a-z]|_)+$`)
	lowerColonRe = regexp.MustCompile(`^([a-z]|_)+:([a-z]|_)+$`)
)

// Classify returns the class of a tag key, checked in the order
// Lower, LowerColon, ProblemChars.
func Classify(raw string) KeyClass {
	switch {
	case lowerRe.MatchString(raw):
		return Lower
	case lowerColonRe.MatchString(raw):
		return LowerColon
	case IsProblematic(raw):
		return ProblemChars
	}
	return Other
}
