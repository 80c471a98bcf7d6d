package model

// Well-known pagination relations.
const (
	RelNext  = "next"
	RelPrev  = "prev"
	RelFirst = "first"
	RelLast  = "last"
)

// LinkEntry is one relation-tagged URL from a pagination header.
type LinkEntry struct {
	Relation string
	URL      string
	Page     int
}

// LinkSet maps a relation name to its entry. A later entry with the same
// relation replaces an earlier one.
type LinkSet map[string]LinkEntry

// Next returns the "next" entry, if present.
func (s LinkSet) Next() (LinkEntry, bool) {
	e, ok := s[RelNext]
	return e, ok
}

// HasNext reports whether another page is available.
func (s LinkSet) HasNext() bool {
	_, ok := s[RelNext]
	return ok
}
