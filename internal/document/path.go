package document

import (
	"fmt"
	"strconv"
	"strings"
)

// AccessorKind distinguishes map-key from list-index navigation steps.
type AccessorKind int

const (
	KeyAccessor AccessorKind = iota
	IndexAccessor
)

// Accessor is one navigation step into a Document.
type Accessor struct {
	Kind  AccessorKind
	Key   string
	Index int
}

// Key builds a map-key accessor.
func Key(name string) Accessor {
	return Accessor{Kind: KeyAccessor, Key: name}
}

// Index builds a list-index accessor.
func Index(n int) Accessor {
	return Accessor{Kind: IndexAccessor, Index: n}
}

// String renders the accessor in its serialized form.
func (a Accessor) String() string {
	if a.Kind == IndexAccessor {
		return "index:" + strconv.Itoa(a.Index)
	}
	return "key:" + a.Key
}

// Path is an ordered accessor chain from a Document root to a target value.
// A Path learned from one source is only meaningful against documents from
// that source; Resolve fails soft everywhere else.
type Path []Accessor

// Child returns a new Path extended by one accessor. The receiver is never
// mutated, so sibling traversal branches stay independent.
func (p Path) Child(a Accessor) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, a)
}

// Resolve walks the path against a document. The second return is false
// whenever any step does not apply to the value at hand.
func (p Path) Resolve(doc *Document) (*Document, bool) {
	current := doc
	for _, a := range p {
		if current == nil {
			return nil, false
		}
		switch a.Kind {
		case KeyAccessor:
			next, ok := current.Field(a.Key)
			if !ok {
				return nil, false
			}
			current = next
		case IndexAccessor:
			next := current.Item(a.Index)
			if next == nil {
				return nil, false
			}
			current = next
		}
	}
	return current, true
}

// Terminal returns the last accessor of a non-empty path.
func (p Path) Terminal() (Accessor, bool) {
	if len(p) == 0 {
		return Accessor{}, false
	}
	return p[len(p)-1], true
}

// KeyNames returns the key segments of the path in order, skipping indexes.
func (p Path) KeyNames() []string {
	var names []string
	for _, a := range p {
		if a.Kind == KeyAccessor {
			names = append(names, a.Key)
		}
	}
	return names
}

// String renders the path as slash-joined accessors, e.g.
// "key:versions/index:0/key:text". The empty path renders as ".".
func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, a := range p {
		parts[i] = a.String()
	}
	return strings.Join(parts, "/")
}

// ParsePath inverts Path.String.
func ParsePath(s string) (Path, error) {
	if s == "" || s == "." {
		return Path{}, nil
	}

	parts := strings.Split(s, "/")
	path := make(Path, 0, len(parts))

	for _, part := range parts {
		switch {
		case strings.HasPrefix(part, "key:"):
			path = append(path, Key(strings.TrimPrefix(part, "key:")))
		case strings.HasPrefix(part, "index:"):
			n, err := strconv.Atoi(strings.TrimPrefix(part, "index:"))
			if err != nil {
				return nil, fmt.Errorf("parse accessor %q: %w", part, err)
			}
			path = append(path, Index(n))
		default:
			return nil, fmt.Errorf("unknown accessor %q", part)
		}
	}

	return path, nil
}
