package routing

import "sort"

// candidate pairs a contact with its distance class to one query target.
type candidate struct {
	distance int
	contact  Contact
}

// less orders candidates by ascending distance class, breaking ties with the
// total contact order, so a ranking is reproducible against an unchanged
// table.
func (c candidate) less(other candidate) bool {
	if c.distance != other.distance {
		return c.distance < other.distance
	}
	return c.contact.Less(other.contact)
}

// candidateSet keeps the best-ranked limit candidates seen so far, in order.
// Candidates ranking at or past the current worst of a full set are dropped
// on arrival, so memory stays bounded by limit no matter how many contacts a
// query scans.
type candidateSet struct {
	limit int
	items []candidate
}

func newCandidateSet(limit int) *candidateSet {
	if limit < 0 {
		limit = 0
	}
	return &candidateSet{limit: limit, items: make([]candidate, 0, limit)}
}

// add offers c to the set, inserting in rank order and dropping the worst
// member when the set overflows.
func (s *candidateSet) add(c candidate) {
	if s.limit == 0 {
		return
	}
	if len(s.items) == s.limit && !c.less(s.items[len(s.items)-1]) {
		return
	}
	i := sort.Search(len(s.items), func(j int) bool { return c.less(s.items[j]) })
	s.items = append(s.items, candidate{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = c
	if len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
}

// contacts returns the n best-ranked contacts, or all of them if fewer were
// kept.
func (s *candidateSet) contacts(n int) []Contact {
	if n < 0 {
		n = 0
	}
	if n > len(s.items) {
		n = len(s.items)
	}
	out := make([]Contact, 0, n)
	for _, item := range s.items[:n] {
		out = append(out, item.contact)
	}
	return out
}
