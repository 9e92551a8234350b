// Package branch defines the canonical representation of category paths and
// the error kinds shared by every component that manipulates the branch tree.
//
// A path is the root name followed by zero or more segments joined by a single
// separator, for example "HOME/Food/Snacks". Prefix tests always compare whole
// segments, so "HOME/Food" is a prefix of "HOME/Food/Snacks" but never of
// "HOME/FoodTruck".
package branch

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// Root is the name of the single well-known root branch.
	Root = "HOME"

	// Separator joins path segments.
	Separator = "/"

	// Up is the parent-navigation token used in relative specifiers.
	Up = ".."

	// Forbidden lists the characters that may not appear in a branch name.
	Forbidden = `\/:*?"<>|`
)

// Path is the fully qualified sequence of names from the root to a branch.
// Paths are values: methods never modify the receiver.
type Path []string

// RootPath returns the path of the root branch.
func RootPath() Path {
	return Path{Root}
}

// Parse parses a canonical path string. The first segment must be the root
// name and every further segment must be a valid branch name.
func Parse(s string) (Path, error) {
	segments := strings.Split(s, Separator)
	if segments[0] != Root {
		return nil, fmt.Errorf("path %q does not start at %s", s, Root)
	}
	for _, seg := range segments[1:] {
		if err := ValidateName(seg); err != nil {
			return nil, fmt.Errorf("path %q: %w", s, err)
		}
	}
	return Path(segments), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical string form.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Name returns the last segment, or "" for an empty path.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Depth returns the number of segments below the root. The root has depth 0.
func (p Path) Depth() int {
	return len(p) - 1
}

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool {
	return len(p) == 1 && p[0] == Root
}

// Parent returns the path of the parent branch. The root's parent is the
// root itself.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return p.clone()
	}
	return p[:len(p)-1].clone()
}

// Join returns a new path with name appended.
func (p Path) Join(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Equal reports whether p and other contain the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix equals p or is an ancestor of p, comparing
// whole segments.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Rebase replaces the leading from segments of p with to. It reports false
// when from is not a prefix of p.
func (p Path) Rebase(from, to Path) (Path, bool) {
	if !p.HasPrefix(from) {
		return nil, false
	}
	out := make(Path, 0, len(to)+len(p)-len(from))
	out = append(out, to...)
	return append(out, p[len(from):]...), true
}

// Chain returns every path from "from" down to p inclusive. It returns nil
// when from is not a prefix of p.
func (p Path) Chain(from Path) []Path {
	if !p.HasPrefix(from) {
		return nil
	}
	chain := make([]Path, 0, len(p)-len(from)+1)
	for n := len(from); n <= len(p); n++ {
		chain = append(chain, p[:n].clone())
	}
	return chain
}

func (p Path) clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Within reports whether the canonical path string s equals prefix or lies
// below it. Names never contain the separator, so a plain string test on
// prefix+Separator respects segment boundaries.
func Within(s, prefix string) bool {
	return s == prefix || strings.HasPrefix(s, prefix+Separator)
}

// RebaseString is the string form of Path.Rebase.
func RebaseString(s, from, to string) (string, bool) {
	if !Within(s, from) {
		return "", false
	}
	return to + s[len(from):], true
}

// ValidateName checks that name can be used as a single branch segment.
func ValidateName(name string) error {
	switch {
	case strings.TrimFunc(name, unicode.IsSpace) == "":
		return &InvalidNameError{Name: name, Reason: "name must not be empty"}
	case strings.EqualFold(name, Root):
		return &InvalidNameError{Name: name, Reason: fmt.Sprintf("%q is reserved", Root)}
	case name == "." || name == Up:
		return &InvalidNameError{Name: name, Reason: "name is a navigation token"}
	case strings.ContainsAny(name, Forbidden):
		return &InvalidNameError{Name: name, Reason: fmt.Sprintf("%s cannot be included", Forbidden)}
	}
	return nil
}
