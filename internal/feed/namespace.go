package feed

import "strconv"

// Namespace is one XML namespace declaration.
type Namespace struct {
	Prefix string
	URI    string
}

// QName is a namespace-qualified element name. Space holds the namespace
// URI, not the prefix.
type QName struct {
	Space string
	Local string
}

// NamespaceSet is an ordered set of namespace declarations, unique by URI.
// Prefixes are kept unique as well: adding a URI whose preferred prefix is
// already bound to another URI gets a numbered prefix instead.
// The zero value is an empty set ready to use.
type NamespaceSet struct {
	list []Namespace
}

// NewNamespaceSet returns a set holding ns.
func NewNamespaceSet(ns ...Namespace) NamespaceSet {
	var s NamespaceSet
	s.Add(ns...)
	return s
}

// Add inserts every namespace whose URI is not yet present.
func (s *NamespaceSet) Add(ns ...Namespace) {
	for _, n := range ns {
		if n.URI == "" || s.Contains(n.URI) {
			continue
		}
		n.Prefix = s.freePrefix(n.Prefix)
		s.list = append(s.list, n)
	}
}

// Union adds every declaration of other to s.
func (s *NamespaceSet) Union(other NamespaceSet) {
	s.Add(other.list...)
}

// Contains reports whether uri is declared.
func (s NamespaceSet) Contains(uri string) bool {
	_, ok := s.Lookup(uri)
	return ok
}

// Lookup returns the declaration bound to uri.
func (s NamespaceSet) Lookup(uri string) (Namespace, bool) {
	for _, n := range s.list {
		if n.URI == uri {
			return n, true
		}
	}
	return Namespace{}, false
}

// List returns a copy of the declarations in insertion order.
func (s NamespaceSet) List() []Namespace {
	out := make([]Namespace, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of declarations.
func (s NamespaceSet) Len() int {
	return len(s.list)
}

func (s *NamespaceSet) freePrefix(want string) string {
	if want == "" {
		want = "ns"
	}
	if !s.prefixTaken(want) && !reservedPrefix(want) {
		return want
	}
	for i := 1; ; i++ {
		candidate := want + strconv.Itoa(i)
		if !s.prefixTaken(candidate) {
			return candidate
		}
	}
}

func (s *NamespaceSet) prefixTaken(prefix string) bool {
	for _, n := range s.list {
		if n.Prefix == prefix {
			return true
		}
	}
	return false
}

// reservedPrefix reports prefixes the document writer binds itself.
func reservedPrefix(prefix string) bool {
	return prefix == ProtocolPrefix || prefix == "xml" || prefix == "xmlns"
}
