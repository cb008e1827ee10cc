package routing

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/suite"
)

// RingSuite exercises the routing table against a small ring of sequential
// node IDs 0 through 17, with node 0 as the local node. Sequential IDs give
// a fully known distance layout: class 1 holds node 1, class 2 holds 2 and
// 3, class 3 holds 4 through 7, class 4 holds 8 through 15, and class 5
// holds 16 and 17.
type RingSuite struct {
	suite.Suite
	ids   [18]NodeID
	addrs [18]netip.AddrPort
}

func TestRingSuite(t *testing.T) {
	suite.Run(t, new(RingSuite))
}

func (s *RingSuite) SetupSuite() {
	for i := range s.ids {
		id, err := NodeIDFromHex(fmt.Sprintf("%064x", i))
		s.Require().NoError(err)
		s.ids[i] = id
		s.addrs[i] = netip.MustParseAddrPort(fmt.Sprintf("127.0.0.1:%d", 3470+i))
	}
}

// contact returns the canonical contact for ring position i.
func (s *RingSuite) contact(i int) Contact {
	return NewContact(s.ids[i], s.addrs[i])
}

// newRing builds a table for node 0 with bucket capacity k and touches
// nodes 1 through 17 in order.
func (s *RingSuite) newRing(k int) *RoutingTable {
	rt := NewRoutingTable(s.ids[0], k)
	for i := 1; i < len(s.ids); i++ {
		rt.Touch(s.contact(i))
	}
	return rt
}

// ranking collapses a result to ring positions for readable assertions.
func (s *RingSuite) ranking(contacts []Contact) []int {
	positions := make([]int, 0, len(contacts))
	for _, c := range contacts {
		for i := range s.ids {
			if c.ID == s.ids[i] {
				positions = append(positions, i)
				break
			}
		}
	}
	return positions
}

// A query never returns more contacts than the bucket capacity, no matter
// how large a limit the caller asks for.
func (s *RingSuite) TestClosestBoundedByCapacity() {
	rt := s.newRing(5)
	closest := rt.ClosestN(s.ids[4], 100)
	s.Equal([]int{5, 6, 7, 1, 2}, s.ranking(closest))
}

// Results rank by distance class to the target, with equal-class members in
// ID order rather than full XOR-distance order.
func (s *RingSuite) TestClosestRanksByClassThenID() {
	rt := s.newRing(5)
	closest := rt.ClosestN(s.ids[3], 5)
	s.Equal([]int{2, 1, 4, 5, 6}, s.ranking(closest))
}

// The target itself never appears in its own result.
func (s *RingSuite) TestClosestOmitsTarget() {
	rt := s.newRing(18)
	closest := rt.ClosestN(s.ids[3], 18)
	s.Len(closest, 16)
	s.NotContains(s.ranking(closest), 3)
}

// A removed contact disappears from subsequent queries.
func (s *RingSuite) TestClosestOmitsRemoved() {
	rt := s.newRing(18)
	rt.Remove(s.contact(7))

	closest := rt.ClosestN(s.ids[3], 18)
	s.Len(closest, 15)
	s.NotContains(s.ranking(closest), 7)
}

// Shrinking the limit returns prefixes of the same ranking.
func (s *RingSuite) TestClosestHonorsLimit() {
	rt := s.newRing(18)
	full := rt.ClosestN(s.ids[3], 18)
	s.Len(full, 16)

	for _, limit := range []int{3, 2, 7, 5} {
		s.Equal(full[:limit], rt.ClosestN(s.ids[3], limit))
	}
}

// A tracked ID cannot be re-bound to a new address while the old binding is
// still in the table.
func (s *RingSuite) TestConflictRejectsRebinding() {
	rt := s.newRing(18)
	rebind := NewContact(s.ids[4], netip.MustParseAddrPort("127.0.0.1:3600"))

	s.False(rt.Conflicts(s.contact(4)))
	s.True(rt.Conflicts(rebind))

	rt.Touch(rebind)
	s.False(rt.Contains(rebind))
	s.True(rt.Contains(s.contact(4)))
}

// Bucket populations follow the bit structure of the ring.
func (s *RingSuite) TestPopulationByDistanceClass() {
	rt := s.newRing(18)

	s.Equal([]int{1, 2, 3, 4, 5}, rt.Distances())
	s.Len(rt.ContactsAt(1), 1)
	s.Len(rt.ContactsAt(2), 2)
	s.Len(rt.ContactsAt(3), 4)
	s.Len(rt.ContactsAt(4), 8)
	s.Len(rt.ContactsAt(5), 2)

	s.Equal([]int{8, 9, 10, 11, 12, 13, 14, 15}, s.ranking(rt.ContactsAt(4)))
}

// Len counts every member, including transient over-capacity ones awaiting
// an eviction decision.
func (s *RingSuite) TestLenCountsAllMembers() {
	s.Equal(17, s.newRing(18).Len())
	s.Equal(17, s.newRing(5).Len())
}
