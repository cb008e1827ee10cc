// Package routing provides the node-routing core of the Vesper peer mesh.
// It defines 256-bit node identifiers, the XOR distance metric, and a
// Kademlia-style routing table that partitions known peers into
// distance-class buckets with bounded membership, caller-driven eviction,
// and ranked closest-contact queries.
package routing

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/sha3"
)

// IDLength is the byte length of a NodeID (256 bits).
const IDLength = 32

// IDBits is the bit width of the identifier space and the largest distance
// class Log2Distance can return.
const IDBits = IDLength * 8

// NodeID is a 256-bit identifier in the routing key space.
type NodeID [IDLength]byte

// ErrInvalidNodeID is returned when a textual node identifier cannot be
// parsed into a NodeID.
var ErrInvalidNodeID = errors.New("invalid node ID")

// NodeIDFromPublicKey computes SHA3-256 of an Ed25519 public key to produce a
// uniformly distributed NodeID. This ensures the routing key space is
// populated evenly regardless of key generation patterns.
func NodeIDFromPublicKey(pub ed25519.PublicKey) NodeID {
	return sha3.Sum256(pub)
}

// NodeIDFromHex parses a 64-character hex string into a NodeID.
func NodeIDFromHex(s string) (NodeID, error) {
	if len(s) != IDLength*2 {
		return NodeID{}, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidNodeID, IDLength*2, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("%w: %v", ErrInvalidNodeID, err)
	}
	var id NodeID
	copy(id[:], raw)
	return id, nil
}

// RandomNodeID returns a NodeID drawn from the system's cryptographic random
// source. Used for synthetic identities in simulations and tests.
func RandomNodeID() NodeID {
	var id NodeID
	rand.Read(id[:])
	return id
}

// Hex returns the full lowercase hex encoding of the ID.
func (id NodeID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Compare orders two IDs lexicographically byte-wise, returning -1, 0, or 1.
// It is the identifier half of the total contact order used to break
// distance ties in closest-contact rankings.
func (id NodeID) Compare(other NodeID) int {
	return bytes.Compare(id[:], other[:])
}

// XOR returns the XOR distance between two node IDs. In Kademlia, XOR
// distance defines the metric space: d(a,b) = a XOR b. The result is itself
// a valid NodeID-sized value where each byte is the XOR of the corresponding
// input bytes.
func XOR(a, b NodeID) NodeID {
	var result NodeID
	for i := 0; i < IDLength; i++ {
		result[i] = a[i] ^ b[i]
	}
	return result
}

// Log2Distance returns the distance class between two node IDs: the 1-based
// position of the highest set bit of XOR(a, b), counted from the least
// significant bit. Identical IDs yield 0; IDs differing in their top bit
// yield IDBits. All contacts in one distance class from a reference ID share
// the same prefix of that ID.
func Log2Distance(a, b NodeID) int {
	dist := XOR(a, b)
	for i := 0; i < IDLength; i++ {
		if dist[i] != 0 {
			// bits.LeadingZeros8 counts zeros above the highest set bit of
			// this byte, so the 1-based position of that bit within the full
			// 256-bit value is IDBits - i*8 - lz.
			lz := bits.LeadingZeros8(dist[i])
			return IDBits - i*8 - lz
		}
	}
	// IDs are identical; there is no highest differing bit.
	return 0
}
