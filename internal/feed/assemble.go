package feed

// Assemble wraps entries into a feed in their given order. The feed's
// namespace set is the union of extra and of every entry's carried set;
// Updated is the latest entry update. No entry is reordered, filtered or
// dropped.
func Assemble(entries []*Entry, extra ...Namespace) *Feed {
	f := &Feed{Entries: make([]*Entry, 0, len(entries))}
	f.Namespaces.Add(extra...)
	for _, e := range entries {
		f.Namespaces.Union(e.Namespaces)
		if e.Updated.After(f.Updated) {
			f.Updated = e.Updated
		}
		f.Entries = append(f.Entries, e)
	}
	return f
}
